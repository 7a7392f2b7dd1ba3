/*
Package dispatcher provides the ordered task queue that serializes all metric
recording side effects in a process.

Recording calls are hot-path instrumentation: they must never block the
caller. Every mutating engine call is therefore wrapped in a Task and handed
to Launch, which enqueues it for a single dedicated worker goroutine and
returns immediately. The worker executes tasks strictly in submission order,
so the metrics engine never sees concurrent writers.

Tests need the opposite guarantee: read-after-write. BlockOnQueue blocks
until every task enqueued before the call has completed, which is how the
metric bindings' Test* accessors observe a quiescent, fully-applied state.
Those accessors are guarded by AssertInTestingMode so the blocking path
cannot leak into production code.
*/
package dispatcher
