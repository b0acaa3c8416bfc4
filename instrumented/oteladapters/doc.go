// Package oteladapters provides OpenTelemetry implementations of the
// instrumented package's observability interfaces. They give callers
// plug-and-play wiring of pipeline instrumentation into an existing
// OpenTelemetry setup without implementing the interfaces themselves.
//
// Available adapters:
//   - SlogBridgeLogger: ContextualLogger via the otelslog bridge (recommended)
//   - OTelLogger: ContextualLogger via the OpenTelemetry log API directly
//   - MetricsCollector: MetricsCollector via the OpenTelemetry metric API
//   - TracingCollector: TracingCollector via the OpenTelemetry trace API
package oteladapters
