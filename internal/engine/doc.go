// Package engine implements the runtime requirement rule engine.
//
// For each chunk the engine runs an ordered list of rules against a mutable
// Context holding the chunk's requirement accumulator and runtime-module
// registry. Rules react to flag combinations and may add flags that trigger
// other rules, so a single pass is not enough: the engine repeats the full
// rule list until a pass neither adds a flag nor changes the registry.
//
// ARCHITECTURE:
//
// Per-chunk fixed point:
//   - Rules run strictly sequentially, in declaration order, within one chunk.
//   - The loop is an explicit repeat-until-stable with an iteration cap.
//     Exceeding the cap is a FixedPointError, never a retryable condition.
//   - Rules must be idempotent for unchanged input flags. Termination
//     depends on it.
//
// Across chunks:
//   - ResolveAll runs chunk tasks in parallel on a bounded errgroup.
//   - Each Context is owned by exactly one task; the chunk graph is shared
//     read-only.
//   - The first failure cancels the remaining tasks and aborts the pass.
package engine
