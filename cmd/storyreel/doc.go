// Command storyreel turns one audio source into a time-coded director's
// script: run the pipeline, regenerate or split individual segments, lint
// continuity, and inspect progress and documents.
package main
