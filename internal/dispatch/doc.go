// Package dispatch serializes playback commands from any number of producers
// onto a single worker goroutine that exclusively owns the audio controller.
//
// Producers never block on Start, Stop or Configure. Queries block until the
// worker replies, and fall back to a stopped result if it never does.
package dispatch
