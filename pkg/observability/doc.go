/*
Package observability wires lookup lifecycle events into Prometheus.

It provides a Metrics bundle on a private registry, lifecycle hooks that
record finished lookups, a cache decorator that counts hits and misses,
and an HTTP handler for scraping.
*/
package observability
