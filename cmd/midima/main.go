// Command midima bridges physical MIDI control surfaces to a lighting
// console's session-based WebSocket protocol. It is a single binary with
// no flags; see config.Load for the configuration file it expects.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pr-c/midima/internal/bridge"
	"github.com/pr-c/midima/internal/config"
	"github.com/pr-c/midima/internal/telemetry"
)

const configFileName = "midiMA.json"

func main() {
	os.Exit(run())
}

func run() int {
	log := telemetry.New()

	cfg, err := config.Load(configFileName)
	if err != nil {
		if errors.Is(err, config.ErrDefaultWriteFailed) {
			log.Error("configuration missing/invalid and default write failed", telemetry.Err("error", err))
			return 1
		}
		// config.Load always returns a usable Config (the written default)
		// alongside the error in every other case, so this is a diagnostic,
		// not a fatal condition.
		log.Warn("configuration load fell back to defaults", telemetry.Err("error", err))
	}

	if len(cfg.MidiDevices) == 0 {
		log.Error("no MIDI devices configured in " + configFileName)
		return 1
	}

	b, err := bridge.New(cfg, log)
	if err != nil {
		log.Error("bridge construction failed", telemetry.Err("error", err))
		return 1
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	if err := b.Run(ctx); err != nil {
		log.Error("bridge terminated", telemetry.Err("error", err))
		return 1
	}

	log.Info("shut down gracefully")
	return 0
}
