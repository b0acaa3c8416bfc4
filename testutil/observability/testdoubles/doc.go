// Package testdoubles provides test doubles (spies) for the instrumented
// package's observability interfaces:
//   - LoggerSpy: captures log calls per level
//   - MetricsCollectorSpy: captures metric recording calls for verification
//   - TracingCollectorSpy: captures spans with their statuses and attributes
//
// These test doubles enable testing of pipeline instrumentation without
// requiring actual telemetry backends.
package testdoubles
