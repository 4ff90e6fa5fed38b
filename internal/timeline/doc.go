// Package timeline implements the pure segment-list algebra: contiguity and
// duration invariants, split edits, and in-place replacement for scoped
// regeneration. Merge, duplicate, and remove are declared contracts that
// currently report an unsupported-operation result.
package timeline
