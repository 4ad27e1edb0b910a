// Package metrics defines the sinks that observe prediction traffic. Every
// sink records prediction outcomes; optional recorder interfaces cover log
// writes, unknown categories and the async queue depth. PromSink and
// InfluxSink live in infra/metrics. NewMetricsSink returns a MultiSink when
// several sinks are configured.
package metrics
