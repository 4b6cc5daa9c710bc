/*
Package observability turns the toolkit's domain.Hooks into metrics and logs.

Metrics are Prometheus collectors registered on a caller supplied registry;
hook sets can be combined so that logging and metrics observe the same events.
*/
package observability
