// Package mongo connects to MongoDB with the official v2 driver.
//
// New applies pool and retry settings from an env-tagged Config and pings the
// server before returning. Healthcheck adapts the client to a
// func(context.Context) error probe.
package mongo
