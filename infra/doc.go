// Package infra holds the adapters behind the core interfaces: artifact
// fetching, estimators, prediction log and delivery stores, metrics sinks
// and event brokers.
package infra
