// Package continuity scores generated segment prompts for visual drift
// against established character appearance states, meta-narrative filler
// phrasing, and prompt length bounds.
package continuity
