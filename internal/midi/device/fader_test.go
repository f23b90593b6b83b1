package device

import (
	"sync"
	"testing"
	"testing/quick"
	"time"

	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/midi"
)

func newTestFader(t *testing.T, cfg config.PatternConfig) (*Fader, *sync.Mutex, *[]Update, *[]midi.Message) {
	t.Helper()
	var mu sync.Mutex
	var maUpdates []Update
	var midiMsgs []midi.Message
	handle := FeedbackHandle{
		Ma: func(u Update) error {
			mu.Lock()
			defer mu.Unlock()
			maUpdates = append(maUpdates, u)
			return nil
		},
		Midi: func(m midi.Message) error {
			mu.Lock()
			defer mu.Unlock()
			midiMsgs = append(midiMsgs, m)
			return nil
		},
	}
	return NewFader(cfg, handle), &mu, &maUpdates, &midiMsgs
}

// Scenario 1: fader up.
func TestFaderUpScenario(t *testing.T) {
	cfg := config.PatternConfig{
		InputStatus: 0xB0, InputData1: 0x10,
		OutputStatus: 0xB0, OutputData1: 0x10,
		ExecutorIndex: 3,
	}
	fader, mu, maUpdates, midiMsgs := newTestFader(t, cfg)

	state, err := fader.ReceiveMidi(midi.Message{0xB0, 0x10, 64})
	if err != nil {
		t.Fatalf("ReceiveMidi: %v", err)
	}
	if state != Consumed {
		t.Fatalf("expected Consumed, got %v", state)
	}

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(*maUpdates) != 1 {
		t.Fatalf("expected one console update, got %d", len(*maUpdates))
	}
	got := (*maUpdates)[0].(FaderUpdate)
	if got.ExecIndex != 3 {
		t.Fatalf("expected exec index 3, got %d", got.ExecIndex)
	}
	want := float32(64) / 127
	if got.Normalized != want {
		t.Fatalf("expected normalized %v, got %v", want, got.Normalized)
	}
	if len(*midiMsgs) != 1 || (*midiMsgs)[0] != (midi.Message{0xB0, 0x10, 64}) {
		t.Fatalf("expected MIDI echo [0xB0,0x10,64], got %v", *midiMsgs)
	}
}

// Scenarios 2 & 3: echo suppression while driving, applied once idle (P6).
func TestFaderEchoSuppressionThenApplied(t *testing.T) {
	cfg := config.PatternConfig{
		InputStatus: 0xB0, InputData1: 0x10,
		OutputStatus: 0xB0, OutputData1: 0x10,
		ExecutorIndex: 3,
	}
	fader, mu, _, midiMsgs := newTestFader(t, cfg)

	if _, err := fader.ReceiveMidi(midi.Message{0xB0, 0x10, 64}); err != nil {
		t.Fatalf("ReceiveMidi: %v", err)
	}

	// Immediately: the fader's own coalescer is still draining, so this
	// console feedback must be ignored.
	if err := fader.ReceiveUpdate(FaderUpdate{ExecIndex: 3, Normalized: 0.0}); err != nil {
		t.Fatalf("ReceiveUpdate: %v", err)
	}
	if fader.current != 64 {
		t.Fatalf("expected current to stay 64 while driving, got %d", fader.current)
	}

	time.Sleep(150 * time.Millisecond) // let both coalescers go idle

	if err := fader.ReceiveUpdate(FaderUpdate{ExecIndex: 3, Normalized: 1.0}); err != nil {
		t.Fatalf("ReceiveUpdate: %v", err)
	}
	if fader.current != 127 {
		t.Fatalf("expected current 127 after idle update, got %d", fader.current)
	}

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	last := (*midiMsgs)[len(*midiMsgs)-1]
	if last != (midi.Message{0xB0, 0x10, 127}) {
		t.Fatalf("expected final MIDI frame [0xB0,0x10,127], got %v", last)
	}
}

func TestFaderUpdateIgnoredForDifferentExecutor(t *testing.T) {
	cfg := config.PatternConfig{OutputStatus: 0xB0, OutputData1: 0x10, ExecutorIndex: 3}
	fader, _, _, midiMsgs := newTestFader(t, cfg)

	if err := fader.ReceiveUpdate(FaderUpdate{ExecIndex: 9, Normalized: 1.0}); err != nil {
		t.Fatalf("ReceiveUpdate: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	if len(*midiMsgs) != 0 {
		t.Fatalf("expected no MIDI output for unrelated executor, got %v", *midiMsgs)
	}
}

// P3 normalization monotonicity and round-trip tolerance.
func TestNormalizationMonotonicityAndRoundTrip(t *testing.T) {
	cfg := config.PatternConfig{OutputStatus: 0xB0, OutputData1: 0x10, ExecutorIndex: 0}
	fader, _, _, _ := newTestFader(t, cfg)

	property := func(v uint8) bool {
		v = v & 0x7f
		n := fader.toNormalized(v)
		back := fader.fromNormalized(n)
		diff := int(back) - int(v)
		return diff >= -1 && diff <= 1
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 200}); err != nil {
		t.Errorf("round-trip tolerance violated: %v", err)
	}

	n1 := fader.toNormalized(10)
	n2 := fader.toNormalized(50)
	if n2 < n1 {
		t.Fatalf("expected non-decreasing normalization, got n1=%v n2=%v", n1, n2)
	}
}
