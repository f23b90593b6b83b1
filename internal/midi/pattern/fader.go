package pattern

import "github.com/pr-c/midima/internal/midi"

// Fader maps a 3-byte MIDI frame to/from a raw 7-bit fader value, grounded on
// original_source/src/midi_controller/midi_pattern/fader_pattern.rs.
type Fader struct {
	InputStatus, InputData1   byte
	OutputStatus, OutputData1 byte
}

// Decode returns (value, true) when msg matches the configured input pair,
// else (0, false). Only msg[0..1] gate the match; msg[2] is the value
// (spec.md P2: decode locality).
func (f Fader) Decode(msg midi.Message) (uint8, bool) {
	if msg.Status() != f.InputStatus || msg.Data1() != f.InputData1 {
		return 0, false
	}
	return msg.Data2(), true
}

// Encode builds the outbound frame for value, clamped to the valid MIDI
// data-byte range.
func (f Fader) Encode(value uint8) midi.Message {
	return midi.Message{f.OutputStatus, f.OutputData1, clamp127(int(value))}
}
