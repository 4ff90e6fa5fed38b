// Package llm provides a retrying client for OpenRouter-compatible chat
// completion endpoints, used by the research, asset extraction, and script
// synthesis stages.
package llm
