// Package midi holds the wire-level MIDI types shared by the pattern,
// transport, and device-model layers.
package midi

// Message is exactly three raw MIDI bytes. The bridge never sends or
// interprets any other form (no SysEx, no running status — spec.md Non-goals).
type Message [3]byte

// Status is the first byte (command + channel).
func (m Message) Status() byte { return m[0] }

// Data1 is the second byte.
func (m Message) Data1() byte { return m[1] }

// Data2 is the third byte, which carries the control's value.
func (m Message) Data2() byte { return m[2] }
