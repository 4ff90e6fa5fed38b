// Package logging wraps log/slog with the structured conventions used across
// the pipeline: standardized field keys, context-derived attributes, component
// loggers, and console/JSON handler construction.
package logging
