package device

import (
	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/midi"
	"github.com/pr-c/midima/internal/midi/pattern"
)

// Button is an edge-triggered control component. Button events are
// low-frequency, so both directions use the feedback handle's direct sinks
// rather than a coalescer.
type Button struct {
	pattern   pattern.Button
	execIndex uint8
	position  config.ButtonPosition

	current bool
	handle  FeedbackHandle
}

// NewButton builds a Button from its pattern configuration and the shared
// feedback handle.
func NewButton(cfg config.PatternConfig, handle FeedbackHandle) *Button {
	return &Button{
		pattern: pattern.Button{
			InputStatus:  cfg.InputStatus,
			InputData1:   cfg.InputData1,
			OutputStatus: cfg.OutputStatus,
			OutputData1:  cfg.OutputData1,
			LowValue:     cfg.Low(),
			HighValue:    cfg.High(),
		},
		execIndex: cfg.ExecutorIndex,
		position:  cfg.Position,
		handle:    handle,
	}
}

// ReceiveMidi implements the hardware-driven half (spec.md §4.4). Receiving
// the same decoded state twice is a no-op (P7 idempotence).
func (b *Button) ReceiveMidi(msg midi.Message) (ReceivingState, error) {
	s, ok := b.pattern.Decode(msg)
	if !ok {
		return Pass, nil
	}
	if s == b.current {
		return Consumed, nil
	}
	b.current = s
	if err := b.handle.Midi(b.pattern.Encode(s)); err != nil {
		return Consumed, err
	}
	update := ButtonUpdate{ExecIndex: b.execIndex, Pressed: s, Position: b.position}
	if err := b.handle.Ma(update); err != nil {
		return Consumed, err
	}
	return Consumed, nil
}

// ReceiveUpdate implements the console-driven half: matches on executor and
// position, and pushes a MIDI feedback frame only when the state changed.
func (b *Button) ReceiveUpdate(u Update) error {
	update, ok := u.(ButtonUpdate)
	if !ok || update.ExecIndex != b.execIndex || update.Position != b.position {
		return nil
	}
	if update.Pressed == b.current {
		return nil
	}
	b.current = update.Pressed
	return b.handle.Midi(b.pattern.Encode(update.Pressed))
}
