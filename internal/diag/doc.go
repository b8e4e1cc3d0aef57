// Package diag defines the diagnostic model shared by the lowering pipeline.
//
// # Purpose
//
//   - Provide deterministic data structures for soft findings produced while
//     decoding, validating and lowering IR functions.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// Hard failures (malformed graphs, nesting limits) are Go errors returned by
// the pass that found them. Diagnostics describe input that was lowered with a
// placeholder or a degraded construct.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//   - Message: short human text.
//   - Primary: a Location naming the function, block and instruction.
//   - Notes: optional secondary locations with additional context.
//
// Codes are grouped by thousands: 3xxx IR input, 4xxx lowering, 5xxx
// configuration, 6xxx observability.
//
// # Concurrency
//
// Bag is safe for concurrent use. Reporter implementations other than
// BagReporter are not.
package diag
