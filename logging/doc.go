/*
Package logging provides a client for sending application log entries to the
Beacon host runtime.

Log methods are best-effort, mirroring the recording contract of the metrics
bindings: marshal or host-call failures are swallowed so logging can never
interrupt the host application.
*/
package logging
