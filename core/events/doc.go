// Package events defines the prediction events emitted on the event bus.
//
// Available event types:
//   - PredictionEvent: outcome of one PredictAndLog call
//   - LogWriteEvent: outcome of one prediction log write
package events
