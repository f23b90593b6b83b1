// Package device implements the per-control state machines and the
// device-model aggregator (spec.md §4.4-§4.5, C4/C5), grounded on
// original_source/src/midi_controller/midi_device/model/components/{fader,button}.rs.
package device

import "github.com/pr-c/midima/internal/config"

// Update is a control state change carried in either direction: controls
// send it toward the console through FeedbackHandle.Ma, and console-originated
// updates are routed to every control in a DeviceModel, where each control
// ignores updates that don't match its own executor (and, for buttons,
// position).
type Update interface {
	isUpdate()
}

// FaderUpdate carries a normalized fader value for one executor.
type FaderUpdate struct {
	ExecIndex  uint8
	Normalized float32
}

func (FaderUpdate) isUpdate() {}

// ButtonUpdate carries the pressed state of one executor's button at a given
// position.
type ButtonUpdate struct {
	ExecIndex uint8
	Pressed   bool
	Position  config.ButtonPosition
}

func (ButtonUpdate) isUpdate() {}

// ReceivingState is the result of offering one inbound MIDI message to a
// component.
type ReceivingState int

const (
	// Pass means the message didn't match this component's pattern; it is
	// informational, not an error, and dispatch continues to the next
	// component.
	Pass ReceivingState = iota
	// Consumed means this component matched and handled the message;
	// dispatch stops.
	Consumed
)
