/*
Package metrics provides the metric bindings of the Beacon telemetry SDK.

A binding is a thin, per-metric wrapper around an opaque engine handle: it
validates its descriptor once at construction, gates recording on the
immutable disabled flag, and hands every mutation to the shared dispatcher
so the engine only ever sees one writer. Recording methods are total
functions with no observable failure mode; instrumentation must never block
or crash the host application.

Each binding also carries Test* accessors for use in tests: they require the
dispatcher's testing mode, drain the queue for a read-after-write guarantee,
and then read back stored values or per-metric error counts. Calling one
outside testing mode panics.
*/
package metrics
