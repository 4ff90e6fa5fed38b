// Package progress maintains the hierarchical task tree the pipeline reports
// into: task creation and forward-only status transitions, prefix-scoped
// observer notifications, and the cooperative pause/resume gate long-running
// operations consult at their suspension points.
package progress
