// Package transcribe uploads audio to a whisper-style speech-to-text
// endpoint and returns the transcript text.
package transcribe
