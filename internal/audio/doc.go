// Package audio wraps the external tooling the pipeline needs around source
// audio: ffprobe inspection, ffmpeg chunk splitting for large files, and the
// analysis summary model produced by an external analyzer command.
package audio
