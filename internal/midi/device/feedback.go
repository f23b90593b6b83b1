package device

import "github.com/pr-c/midima/internal/midi"

// FeedbackHandle bundles the two sinks every control needs: one toward the
// console client, one toward the MIDI transport's outbound writer.
// The bridge constructs one handle per device model, and the model shares it
// across all of its controls, mirroring ModelFeedbackHandle in the original
// source.
type FeedbackHandle struct {
	Ma   func(Update) error
	Midi func(midi.Message) error
}
