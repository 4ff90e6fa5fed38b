// Package api serves the read-only status surface: the live progress tree,
// canonical document inspection, and pause/resume control.
package api
