package device

import (
	"math"
	"time"

	"github.com/pr-c/midima/internal/coalesce"
	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/midi"
	"github.com/pr-c/midima/internal/midi/pattern"
)

// coalescePeriod is the fixed drain period for both of a fader's
// coalescers, matching the 50ms period used throughout the original source.
const coalescePeriod = 50 * time.Millisecond

// Fader is a motorized fader's control component: decodes/encodes its own
// MIDI frames, tracks the last-known raw value, and arbitrates direction
// through a pair of coalescers (one toward the console, one toward MIDI).
type Fader struct {
	pattern       pattern.Fader
	execIndex     uint8
	min, max      uint8
	inputFeedback bool

	current uint8

	maSender   *coalesce.PeriodicUpdateSender[Update]
	midiSender *coalesce.PeriodicUpdateSender[midi.Message]
}

// NewFader builds a Fader from its pattern configuration and the shared
// feedback handle. The two coalescers are constructed eagerly but stay
// idle (no goroutine) until the first SetValue.
func NewFader(cfg config.PatternConfig, handle FeedbackHandle) *Fader {
	f := &Fader{
		pattern: pattern.Fader{
			InputStatus:  cfg.InputStatus,
			InputData1:   cfg.InputData1,
			OutputStatus: cfg.OutputStatus,
			OutputData1:  cfg.OutputData1,
		},
		execIndex:     cfg.ExecutorIndex,
		min:           cfg.Min(),
		max:           cfg.Max(),
		inputFeedback: cfg.Feedback(),
	}
	f.maSender = coalesce.New(func(u Update) error { return handle.Ma(u) }, coalescePeriod)
	f.midiSender = coalesce.New(func(m midi.Message) error { return handle.Midi(m) }, coalescePeriod)
	return f
}

// ReceiveMidi implements the hardware-driven half of the fader state
// machine (spec.md §4.4).
func (f *Fader) ReceiveMidi(msg midi.Message) (ReceivingState, error) {
	v, ok := f.pattern.Decode(msg)
	if !ok {
		return Pass, nil
	}
	if v == f.current {
		return Consumed, nil
	}
	f.current = v
	if err := f.maSender.SetValue(FaderUpdate{ExecIndex: f.execIndex, Normalized: f.toNormalized(v)}); err != nil {
		return Consumed, err
	}
	if f.inputFeedback {
		if err := f.midiSender.SetValue(f.pattern.Encode(v)); err != nil {
			return Consumed, err
		}
	}
	return Consumed, nil
}

// ReceiveUpdate implements the console-driven half. Echo suppression: while
// this fader's own console-bound coalescer is still draining, the user is
// actively driving the fader, so console feedback for the same executor is
// ignored (spec.md P6).
func (f *Fader) ReceiveUpdate(u Update) error {
	update, ok := u.(FaderUpdate)
	if !ok || update.ExecIndex != f.execIndex {
		return nil
	}
	if f.maSender.IsSending() {
		return nil
	}
	midiV := f.fromNormalized(update.Normalized)
	if midiV == f.current {
		return nil
	}
	f.current = midiV
	return f.midiSender.SetValue(f.pattern.Encode(midiV))
}

func (f *Fader) toNormalized(v uint8) float32 {
	n := (float32(v) - float32(f.min)) / float32(f.max)
	if n < 0 {
		return 0
	}
	return n
}

func (f *Fader) fromNormalized(n float32) uint8 {
	raw := int(math.Round(float64(n)*float64(f.max))) + int(f.min)
	if raw < 0 {
		return 0
	}
	if raw > 127 {
		return 127
	}
	return uint8(raw)
}
