package device

import (
	"sync"

	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/midi"
	"github.com/pr-c/midima/internal/telemetry"
)

// component is the common shape of Fader, Button, and Encoder, collapsing
// the original source's separate hardware/console traits into one variant
// dispatched by the model (spec.md §9 "interface abstraction for controls").
type component interface {
	ReceiveMidi(msg midi.Message) (ReceivingState, error)
	ReceiveUpdate(u Update) error
}

// Model aggregates every control configured for one physical surface. All
// access is serialized through mu so that inbound MIDI and inbound console
// updates never interleave within a single dispatch.
type Model struct {
	mu  sync.Mutex
	log telemetry.Logger

	// faders is dispatched before buttons: fader frames and button frames
	// are always distinguishable by (status, data1) in practice; order only
	// matters if a user misconfigures both controls to the same key, in
	// which case the fader wins.
	faders   []*Fader
	buttons  []*Button
	encoders []*Encoder
}

// NewModel constructs one control per configured entry, sharing a single
// feedback handle across all of them.
func NewModel(cfg config.DeviceModelConfig, handle FeedbackHandle, log telemetry.Logger) *Model {
	m := &Model{log: log}
	for _, fc := range cfg.MotorFaders {
		m.faders = append(m.faders, NewFader(fc, handle))
	}
	for _, bc := range cfg.Buttons {
		m.buttons = append(m.buttons, NewButton(bc, handle))
	}
	for _, ec := range cfg.RotaryEncoders {
		m.encoders = append(m.encoders, NewEncoder(ec, log))
	}
	return m
}

// ReceiveMidiMessage dispatches msg to each control in turn until one
// consumes it. A message matching no control is dropped (a pass is
// informational, not an error).
func (m *Model) ReceiveMidiMessage(msg midi.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.faders {
		state, err := f.ReceiveMidi(msg)
		if err != nil {
			return err
		}
		if state == Consumed {
			return nil
		}
	}
	for _, b := range m.buttons {
		state, err := b.ReceiveMidi(msg)
		if err != nil {
			return err
		}
		if state == Consumed {
			return nil
		}
	}
	for _, e := range m.encoders {
		state, err := e.ReceiveMidi(msg)
		if err != nil {
			return err
		}
		if state == Consumed {
			return nil
		}
	}
	return nil
}

// ReceiveUpdateFromConsole dispatches u to every control; each control
// filters by executor (and, for buttons, position) itself.
func (m *Model) ReceiveUpdateFromConsole(u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.faders {
		if err := f.ReceiveUpdate(u); err != nil {
			return err
		}
	}
	for _, b := range m.buttons {
		if err := b.ReceiveUpdate(u); err != nil {
			return err
		}
	}
	return nil
}
