// Package pipeline sequences the generation stages that turn one audio
// source into a time-coded shot-by-shot script: transcription, timing map,
// research, audio analysis, asset extraction, context assembly, and script
// synthesis. Stages run strictly in order and each successful output is
// merged into the canonical document before the next stage starts. Per-asset
// reference images are the only concurrent, best-effort work. Regeneration
// reruns synthesis alone, optionally scoped to a single segment.
package pipeline
