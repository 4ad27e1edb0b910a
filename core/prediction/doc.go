// Package prediction defines the estimator contract used to turn a feature
// vector into a delivery time. Estimators are produced by offline training
// and are treated as opaque, deterministic functions at serving time.
package prediction
