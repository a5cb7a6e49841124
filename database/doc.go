// Package database provides MongoDB connection management, client option
// passthrough, model registration, typed collection handles with middleware,
// command logging, health checks, statistics, metrics and data seeding built on
// top of the official MongoDB driver.
package database
