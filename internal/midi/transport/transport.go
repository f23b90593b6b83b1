// Package transport owns the physical MIDI ports (spec.md §4.3, C3),
// grounded on gomidi/midi v2 usage in
// other_examples/84ba8a31_madpsy-ka9q_ubersdr (port lookup, ListenTo) and
// other_examples/86ebc909_jdginn-arpad (drivers.Out.Send of raw bytes).
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the cross-platform driver

	"github.com/pr-c/midima/internal/midi"
	"github.com/pr-c/midima/internal/telemetry"
)

const outboundQueueDepth = 64

// Transport owns one input port and one output port located by a
// case-insensitive prefix match on the configured name.
type Transport struct {
	log telemetry.Logger

	in     drivers.In
	out    drivers.Out
	stopIn func()

	inbound  chan midi.Message
	outbound chan midi.Message

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open locates and opens both ports. A missing port is a fatal construction
// error (spec.md: "missing ports are a fatal construction error").
func Open(inName, outName string, log telemetry.Logger) (*Transport, error) {
	inPort, err := findIn(inName)
	if err != nil {
		return nil, err
	}
	outPort, err := findOut(outName)
	if err != nil {
		return nil, err
	}

	if err := inPort.Open(); err != nil {
		return nil, fmt.Errorf("transport: open input port %q: %w", inName, err)
	}
	if err := outPort.Open(); err != nil {
		inPort.Close()
		return nil, fmt.Errorf("transport: open output port %q: %w", outName, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		log:      log,
		in:       inPort,
		out:      outPort,
		inbound:  make(chan midi.Message, outboundQueueDepth),
		outbound: make(chan midi.Message, outboundQueueDepth),
		cancel:   cancel,
	}

	stop, err := gomidi.ListenTo(inPort, t.handleInbound, gomidi.UseSysEx())
	if err != nil {
		inPort.Close()
		outPort.Close()
		cancel()
		return nil, fmt.Errorf("transport: listen on %q: %w", inName, err)
	}
	t.stopIn = stop

	t.wg.Add(1)
	go t.writeLoop(ctx)

	return t, nil
}

// handleInbound is the native port callback. Non-3-byte payloads (SysEx,
// running status leftovers) are dropped silently per spec.
func (t *Transport) handleInbound(msg gomidi.Message, _ int32) {
	raw := msg.Bytes()
	if len(raw) != 3 {
		return
	}
	select {
	case t.inbound <- midi.Message{raw[0], raw[1], raw[2]}:
	default:
		t.log.Warn("inbound MIDI queue full, dropping message")
	}
}

// Inbound returns the receive-only stream of decoded inbound frames.
func (t *Transport) Inbound() <-chan midi.Message { return t.inbound }

// Send enqueues msg for the writer goroutine. Messages are forwarded to the
// port in submission order.
func (t *Transport) Send(msg midi.Message) error {
	select {
	case t.outbound <- msg:
		return nil
	default:
		return fmt.Errorf("transport: outbound queue full")
	}
}

func (t *Transport) writeLoop(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.outbound:
			if err := t.out.Send(msg[:]); err != nil {
				t.log.Error("MIDI output write failed", telemetry.Err("error", err))
			}
		}
	}
}

// Close cancels the writer goroutine and closes both ports.
func (t *Transport) Close() error {
	if t.stopIn != nil {
		t.stopIn()
	}
	t.cancel()
	t.wg.Wait()

	var errs []error
	if err := t.in.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := t.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("transport: close: %v", errs)
	}
	return nil
}

func findIn(name string) (drivers.In, error) {
	for _, port := range gomidi.GetInPorts() {
		if matchesPrefix(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("transport: no input port matching %q", name)
}

func findOut(name string) (drivers.Out, error) {
	for _, port := range gomidi.GetOutPorts() {
		if matchesPrefix(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("transport: no output port matching %q", name)
}

func matchesPrefix(portName, configured string) bool {
	return strings.HasPrefix(strings.ToLower(portName), strings.ToLower(configured))
}
