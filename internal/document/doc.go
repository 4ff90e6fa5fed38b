// Package document persists the canonical per-story record that accumulates
// pipeline outputs. Updates run a read-merge-write cycle restricted to a
// field whitelist; unknown fields round-trip untouched. The cycle is not
// transactional across concurrent writers for the same story; single writer
// per story is the supported workload.
package document
