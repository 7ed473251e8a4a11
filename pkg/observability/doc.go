/*
Package observability provides tools for monitoring the trial sequencer.

It includes Prometheus metrics driven by lifecycle hooks and an aggregator
that fans session snapshots out to live watchers such as the HTTP event stream.
*/
package observability
