// Package service orchestrates a single prediction: the request is encoded
// into a feature vector, evaluated by the loaded estimator, rounded for the
// caller and appended to the prediction log. Encoding and estimation failures
// abort the request; log failures are observed and never returned.
package service
