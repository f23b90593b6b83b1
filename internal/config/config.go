// Package config loads and, if necessary, writes the bridge's JSON
// configuration file, following original_source/src/config.rs's
// read-or-write-default shape.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrDefaultWriteFailed is wrapped into Load's error when the configuration
// file was missing or invalid AND writing the default file back out also
// failed. Unlike the missing/invalid cases (which proceed with in-memory
// defaults), this leaves the caller without any usable persisted state and
// is treated as fatal (spec.md §6: "config failure after default-write").
var ErrDefaultWriteFailed = errors.New("config: failed to write default configuration")

// ButtonPosition identifies which of an executor's three buttons a Button
// control drives.
type ButtonPosition string

const (
	PositionTop    ButtonPosition = "Top"
	PositionMid    ButtonPosition = "Mid"
	PositionBottom ButtonPosition = "Bottom"
)

// PatternConfig holds the recognized per-control fields from spec.md §3.
// MinValue/MaxValue/InputFeedback are pointers so we can distinguish "not
// present in JSON" from "explicitly zero" and apply the documented defaults.
type PatternConfig struct {
	InputStatus  uint8 `json:"input_status"`
	InputData1   uint8 `json:"input_data1"`
	OutputStatus uint8 `json:"output_status"`
	OutputData1  uint8 `json:"output_data1"`

	MinValue *uint8 `json:"min_value,omitempty"`
	MaxValue *uint8 `json:"max_value,omitempty"`

	InputFeedback *bool `json:"input_feedback,omitempty"`

	ExecutorIndex uint8 `json:"executor_index"`

	// Button-only fields.
	Position  ButtonPosition `json:"position,omitempty"`
	LowValue  *uint8         `json:"low_value,omitempty"`
	HighValue *uint8         `json:"high_value,omitempty"`
}

// Min returns MinValue or its documented default of 0.
func (p PatternConfig) Min() uint8 {
	if p.MinValue == nil {
		return 0
	}
	return *p.MinValue
}

// Max returns MaxValue or its documented default of 127.
func (p PatternConfig) Max() uint8 {
	if p.MaxValue == nil {
		return 127
	}
	return *p.MaxValue
}

// Feedback returns InputFeedback or its documented default of true.
func (p PatternConfig) Feedback() bool {
	if p.InputFeedback == nil {
		return true
	}
	return *p.InputFeedback
}

// Low returns LowValue or its documented default of 0.
func (p PatternConfig) Low() uint8 {
	if p.LowValue == nil {
		return 0
	}
	return *p.LowValue
}

// High returns HighValue or its documented default of 127.
func (p PatternConfig) High() uint8 {
	if p.HighValue == nil {
		return 127
	}
	return *p.HighValue
}

// DeviceModelConfig lists the controls belonging to one physical surface.
type DeviceModelConfig struct {
	MotorFaders    []PatternConfig `json:"motor_faders"`
	RotaryEncoders []PatternConfig `json:"rotary_encoders"`
	Buttons        []PatternConfig `json:"buttons"`
}

// MidiDeviceConfig binds one MIDI input/output port pair to a device model.
type MidiDeviceConfig struct {
	MidiInPortName  string            `json:"midi_in_port_name"`
	MidiOutPortName string            `json:"midi_out_port_name"`
	Model           DeviceModelConfig `json:"model"`
}

// Config is the full contents of midiMA.json (spec.md §6).
type Config struct {
	ConsoleIP       string `json:"console_ip"`
	ConsoleUsername string `json:"console_username"`
	ConsolePassword string `json:"console_password"`

	MaPollInterval int `json:"ma_poll_interval"`

	MidiDevices []MidiDeviceConfig `json:"midi_devices"`
}

// Default returns the configuration written when no valid file is present.
func Default() Config {
	return Config{
		ConsoleIP:       "127.0.0.1:2794",
		ConsoleUsername: "",
		ConsolePassword: "",
		MaPollInterval:  250,
		MidiDevices:     nil,
	}
}

// Load reads filename and parses it as Config. If the file is absent or
// cannot be parsed, it writes the default configuration to filename and
// returns (Default(), err) so callers can tell the two apart for logging
// while still always getting a usable Config, per spec.md §6:
//
//	"If the file is absent or invalid, the program writes a default file
//	 and proceeds with defaults."
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if writeErr := writeDefault(filename); writeErr != nil {
			return Default(), fmt.Errorf("config missing (%v) and default write failed: %w", err, errors.Join(ErrDefaultWriteFailed, writeErr))
		}
		return Default(), fmt.Errorf("config file %s missing, wrote default: %w", filename, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		if writeErr := writeDefault(filename); writeErr != nil {
			return Default(), fmt.Errorf("config invalid (%v) and default write failed: %w", err, errors.Join(ErrDefaultWriteFailed, writeErr))
		}
		return Default(), fmt.Errorf("config file %s invalid, wrote default: %w", filename, err)
	}

	return cfg, nil
}

func writeDefault(filename string) error {
	def := Default()
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write default config to %s: %w", filename, err)
	}
	return nil
}
