// Package eventbus provides a small type-safe publish/subscribe bus used to
// fan prediction events out to metrics collectors and external publishers.
package eventbus
