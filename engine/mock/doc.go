/*
Package mock provides an in-memory metrics engine behind the waPC host-call
signature.

Unlike hostmock, which scripts canned responses, this package actually
implements the engine contract: it registers metrics and mints handles,
stores values keyed by (handle, ping) with overwrite semantics, validates and
coerces recorded values per metric kind, and accumulates per-metric error
counters. It backs the metric-binding tests and can serve as the engine for
hosts embedding the SDK in-process.

Validation mirrors what a production engine does: oversized strings are
truncated and counted as invalid_overflow, malformed JWE compact strings are
dropped and counted as invalid_value, non-positive counter amounts are
rejected, and invalid labels route to the __other__ bucket while counting
invalid_label against the parent metric.
*/
package mock
