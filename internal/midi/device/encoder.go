package device

import (
	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/midi"
	"github.com/pr-c/midima/internal/telemetry"
)

// Encoder is a placeholder control component: it recognizes its own MIDI
// frames (so dispatch stops there and doesn't fall through to later
// components) but takes no further action. The rotary encoder protocol was
// never defined upstream (relative/absolute turn encoding, detent count),
// so this stays a decode-only stub pending that decision.
type Encoder struct {
	inputStatus, inputData1 byte
	log                     telemetry.Logger
}

// NewEncoder builds an Encoder from its pattern configuration.
func NewEncoder(cfg config.PatternConfig, log telemetry.Logger) *Encoder {
	return &Encoder{inputStatus: cfg.InputStatus, inputData1: cfg.InputData1, log: log}
}

// ReceiveMidi recognizes frames addressed to this encoder and logs them;
// no update is produced toward the console.
func (e *Encoder) ReceiveMidi(msg midi.Message) (ReceivingState, error) {
	if msg.Status() != e.inputStatus || msg.Data1() != e.inputData1 {
		return Pass, nil
	}
	e.log.Debug("encoder input ignored: protocol unimplemented",
		telemetry.Uint8("status", e.inputStatus), telemetry.Uint8("data1", e.inputData1))
	return Consumed, nil
}

// ReceiveUpdate is a no-op: encoders have no console-bound representation.
func (e *Encoder) ReceiveUpdate(Update) error { return nil }
