package pattern

import "github.com/pr-c/midima/internal/midi"

// Button maps a 3-byte MIDI frame to/from a boolean pressed state, grounded
// on original_source/src/midi_controller/midi_pattern/button_pattern.rs.
type Button struct {
	InputStatus, InputData1   byte
	OutputStatus, OutputData1 byte
	LowValue, HighValue       byte
}

// Decode returns (pressed, true) when msg matches the configured input
// pair. pressed is true whenever the value byte differs from LowValue.
func (b Button) Decode(msg midi.Message) (bool, bool) {
	if msg.Status() != b.InputStatus || msg.Data1() != b.InputData1 {
		return false, false
	}
	return msg.Data2() != b.LowValue, true
}

// Encode builds the outbound frame for state: HighValue when pressed,
// LowValue otherwise.
func (b Button) Encode(state bool) midi.Message {
	if state {
		return midi.Message{b.OutputStatus, b.OutputData1, b.HighValue}
	}
	return midi.Message{b.OutputStatus, b.OutputData1, b.LowValue}
}
