// Package imagegen renders reference images for characters, locations, and
// props via an OpenAI-compatible image generation endpoint.
package imagegen
