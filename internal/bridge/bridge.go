// Package bridge implements the top-level supervisor loop (spec.md §4.8,
// C8): it owns the device models, the MIDI transports, and the
// reconnecting console client, and wires updates between them.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/console"
	"github.com/pr-c/midima/internal/midi/device"
	"github.com/pr-c/midima/internal/midi/transport"
	"github.com/pr-c/midima/internal/telemetry"
)

const pollTimeout = 2000 * time.Millisecond

// updateQueueDepth bounds the device-to-console channel. There is no
// explicit bound in the source design beyond "the console drains at line
// rate"; a generous buffer lets updates accumulate across a reconnect
// without an unbounded allocation.
const updateQueueDepth = 4096

type surface struct {
	name      string
	transport *transport.Transport
	model     *device.Model
}

// Bridge owns every configured MIDI surface and the single console
// connection shared between them.
type Bridge struct {
	log telemetry.Logger

	consoleURL      string
	consoleUsername string
	consolePassword string
	pollInterval    time.Duration

	surfaces []*surface
	updates  chan device.Update
}

// New builds a Bridge from the loaded configuration. It opens every
// configured MIDI transport; a missing port is a fatal construction error
// (spec.md §4.3).
func New(cfg config.Config, log telemetry.Logger) (*Bridge, error) {
	b := &Bridge{
		log:             log,
		consoleURL:      "ws://" + cfg.ConsoleIP,
		consoleUsername: cfg.ConsoleUsername,
		consolePassword: cfg.ConsolePassword,
		pollInterval:    time.Duration(cfg.MaPollInterval) * time.Millisecond,
		updates:         make(chan device.Update, updateQueueDepth),
	}

	if len(cfg.MidiDevices) == 0 {
		return nil, fmt.Errorf("bridge: no MIDI devices configured")
	}

	for _, dc := range cfg.MidiDevices {
		t, err := transport.Open(dc.MidiInPortName, dc.MidiOutPortName, log)
		if err != nil {
			b.closeSurfaces()
			return nil, fmt.Errorf("bridge: open device %q: %w", dc.MidiInPortName, err)
		}
		handle := device.FeedbackHandle{
			Ma:   b.pushUpdate,
			Midi: t.Send,
		}
		model := device.NewModel(dc.Model, handle, log)
		b.surfaces = append(b.surfaces, &surface{name: dc.MidiInPortName, transport: t, model: model})
	}

	return b, nil
}

func (b *Bridge) pushUpdate(u device.Update) error {
	select {
	case b.updates <- u:
	default:
		b.log.Warn("device-to-console update queue full, dropping update")
	}
	return nil
}

func (b *Bridge) closeSurfaces() {
	for _, s := range b.surfaces {
		s.transport.Close()
	}
}

// Run drives inbound MIDI dispatch and the console connect/poll/reconnect
// loop until ctx is cancelled. The first console connection attempt's
// failure is returned to the caller as fatal; subsequent failures trigger
// an internal reconnect loop instead.
func (b *Bridge) Run(ctx context.Context) error {
	for _, s := range b.surfaces {
		go b.dispatchInbound(ctx, s)
	}

	client, err := console.Dial(b.consoleURL, b.consoleUsername, b.consolePassword, b.log)
	if err != nil {
		return fmt.Errorf("bridge: initial console connection failed: %w", err)
	}

	for {
		fwdCtx, cancelForwarder := context.WithCancel(ctx)
		go b.forward(fwdCtx, client)

		err := b.pollLoop(ctx, client)
		cancelForwarder()
		client.Close()

		if ctx.Err() != nil {
			return nil
		}
		b.log.Warn("console connection lost, trying to reconnect", telemetry.Err("error", err))

		client, err = b.reconnect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (b *Bridge) reconnect(ctx context.Context) (*console.Client, error) {
	backoff := 500 * time.Millisecond
	const maxBackoff = 5 * time.Second
	for {
		client, err := console.Dial(b.consoleURL, b.consoleUsername, b.consolePassword, b.log)
		if err == nil {
			return client, nil
		}
		b.log.Warn("reconnect attempt failed", telemetry.Err("error", err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// forward drains staged updates and ships each to the console. It keeps
// running until fwdCtx is cancelled by the poll loop exiting.
func (b *Bridge) forward(ctx context.Context, client *console.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-b.updates:
			if err := b.sendUpdate(client, u); err != nil {
				b.log.Warn("forwarding update to console failed", telemetry.Err("error", err))
			}
		}
	}
}

func (b *Bridge) sendUpdate(client *console.Client, u device.Update) error {
	switch v := u.(type) {
	case device.FaderUpdate:
		return client.SendFaderValue(v.ExecIndex, v.Normalized)
	case device.ButtonUpdate:
		return client.SendButtonValue(v.ExecIndex, v.Pressed, toWirePosition(v.Position))
	default:
		return nil
	}
}

func toWirePosition(p config.ButtonPosition) console.ButtonPosition {
	switch p {
	case config.PositionTop:
		return console.PositionTop
	case config.PositionBottom:
		return console.PositionBottom
	default:
		return console.PositionMid
	}
}

// pollLoop requests fader values at pollInterval until a poll times out,
// dispatching each response into every device model.
func (b *Bridge) pollLoop(ctx context.Context, client *console.Client) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
			values, err := client.PollFaderValues(pollCtx)
			cancel()
			if err != nil {
				return err
			}
			for i, v := range values {
				update := device.FaderUpdate{ExecIndex: uint8(i), Normalized: v}
				for _, s := range b.surfaces {
					if err := s.model.ReceiveUpdateFromConsole(update); err != nil {
						b.log.Warn("dispatching console update failed", telemetry.Err("error", err))
					}
				}
			}
		}
	}
}

func (b *Bridge) dispatchInbound(ctx context.Context, s *surface) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.transport.Inbound():
			if !ok {
				return
			}
			if err := s.model.ReceiveMidiMessage(msg); err != nil {
				b.log.Warn("dispatching inbound MIDI failed", telemetry.Err("error", err), telemetry.Str("surface", s.name))
			}
		}
	}
}

// Close tears down every MIDI transport.
func (b *Bridge) Close() {
	b.closeSurfaces()
}
