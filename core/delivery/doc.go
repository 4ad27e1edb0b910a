// Package delivery defines access to historical deliveries and the synthetic
// data generator used to seed them.
package delivery
