// Package pattern implements the pure MIDI encode/decode rules (spec.md
// §4.1, C1): mapping between 3-byte MIDI frames and typed control state.
// Patterns carry no mutable state.
package pattern

func clamp127(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
