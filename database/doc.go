// Package database provides connection management, model registration,
// schema recreation, foreign key declarations, seed SQL execution, query
// recording, SQL error classification and logging built on top of Bun.
package database
