// Package observability bundles the registry's logging, metrics, health
// probes, tracing bootstrap, and graceful-shutdown plumbing.
package observability
