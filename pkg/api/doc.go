// Package api exposes the registry over HTTP: publication on the write side,
// graph queries on the read side, plus metadata, activity feed, and stats
// endpoints. Query endpoints return the pre-serialized payloads produced by
// the registry service so cache hits pass straight through to the wire.
package api
