// Package instrumented provides a value wrapper that threads a payload
// through a chain of transformation stages while silently accumulating an
// ordered, append-only audit trail of what happened at each stage.
//
// A chain starts with the Of factory, is extended with the composition
// operators (Map, MapNamed, FlatMap, FlatMapNamed), and ends with a terminal
// drain (Run or RunAsync) that hands the accumulated trail to a
// caller-supplied sink and returns the final value to normal program flow.
//
// Every composition call allocates a fresh wrapper; the predecessor is never
// mutated. Each EventRecord carries serialized deep-copy snapshots of the
// value before and after its stage, so later in-place mutation of a composite
// payload can never retroactively alter what was recorded.
//
// Key types:
//   - Value: The wrapper threading a payload through stages
//   - EventRecord: One entry in the audit trail
//   - Sink / AsyncSink: Caller-supplied consumers of the drained trail
//
// Common usage pattern:
//
//	wrapped, err := instrumented.Of(5)
//	if err != nil {
//		// handle error
//	}
//
//	doubled, err := instrumented.MapNamed(wrapped, "double", func(x int) int {
//		return x * 2
//	})
//	if err != nil {
//		// handle error
//	}
//
//	final, err := doubled.Run(func(records instrumented.EventRecords) error {
//		return telemetry.Publish(records)
//	})
package instrumented
