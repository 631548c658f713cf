// Package taskpool dispatches an iterable of inputs across a fixed set of
// concurrently running workers, collects their results, and yields them
// back as a consumable, lazily-pulled sequence.
//
// Constructors
//   - NewOptions(workerSpec, opts ...Option): the preferred entry point.
//   - New(workerSpec, *Config): accepts a Config value directly.
//     Deprecated: prefer NewOptions.
//
// Defaults
// Unless overridden, the following defaults apply to a newly constructed
// Pool:
//   - WorkerCount: 1
//   - ArgumentMode: ModeSingle
//   - ExceptionPolicy: PolicyImmediate
//   - Bounded: true
//   - ChunkSize: 0 (resolved to WorkerCount)
//   - ChunkPrefillRatio: 0 (resolved to 2)
//   - Unordered: false (ordered output)
//   - UseThreads: false
//
// Lifecycle
// A Pool starts its workers immediately at construction and serves exactly
// one Run/RunSeq invocation: the engine closes the pool unconditionally at
// the end of that invocation, whether it ran to completion or aborted on
// an IMMEDIATE failure. A second Run/RunSeq call after that returns
// ErrClosed. Call Close directly to tear a Pool down without running it,
// or to guarantee cleanup if the result iterator is abandoned mid-stream.
//
// Exception policies
//   - PolicyIgnore: every failure appears in the result stream as an
//     ordinary outcome; discriminate with IsFailure.
//   - PolicyImmediate: the first observed failure ends the stream, drains
//     and closes the pool, and is returned as the stream's fatal error.
//   - PolicyDeferred: failures are collected silently; after the input is
//     exhausted, a composite error carrying all of them ends the stream.
package taskpool
