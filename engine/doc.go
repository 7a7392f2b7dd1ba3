/*
Package engine provides the client for the Beacon metrics-engine host
capability.

The engine is an external collaborator reached over a waPC host call: it owns
metric identity, value storage, validation rules, and error counters. This
package only marshals requests, dispatches them across the boundary, and
decodes responses. Metric handles minted by the engine are opaque: the guest
holds them for the lifetime of the process and never frees or reuses them.

All payloads are JSON. Recording operations are fire-and-forget from the
caller's perspective; data errors (truncation, malformed structured values)
are coerced engine-side and surface only through the per-metric error
counters read by TestGetNumErrors.
*/
package engine
