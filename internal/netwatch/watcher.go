package netwatch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Bus topics published on connectivity transitions. Subscribers get one event
// per transition, not one per probe.
const (
	TopicOnline  = "network.online"
	TopicOffline = "network.offline"
)

// Pinger reports whether the remote mirror answers a round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher is the process-local stand-in for a platform connectivity signal:
// it probes the mirror on an interval and publishes online/offline events on
// the bus when the state flips.
type Watcher struct {
	logger   *slog.Logger
	pinger   Pinger
	bus      evbus.Bus
	interval time.Duration

	online   atomic.Bool
	probed   atomic.Bool
	stopChan chan struct{}
}

func NewWatcher(logger *slog.Logger, pinger Pinger, bus evbus.Bus, interval time.Duration) *Watcher {
	return &Watcher{
		logger:   logger.With(slog.String("service", "netwatch")),
		pinger:   pinger,
		bus:      bus,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Online reports the last probed state. Before the first probe it reports
// false; an offline-first process assumes nothing about the network at boot.
func (w *Watcher) Online() bool {
	return w.online.Load()
}

type CleanupFunc func()

// Run starts the probe loop and performs one immediate probe so startup code
// can decide whether to drain the queue. The returned cleanup stops the loop.
func (w *Watcher) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	w.Probe(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		w.run(ctx)
	}()

	return func() {
		close(w.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
		}
		cancel()
	}
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.Probe(ctx)
		}
	}
}

// Probe performs one reachability check and publishes an event when the state
// changed since the previous probe.
func (w *Watcher) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	up := w.pinger.Ping(probeCtx) == nil

	first := !w.probed.Swap(true)
	changed := w.online.Swap(up) != up

	if first || changed {
		if up {
			w.logger.InfoContext(ctx, "remote mirror reachable")
			w.bus.Publish(TopicOnline)
		} else {
			w.logger.WarnContext(ctx, "remote mirror unreachable, operating offline")
			w.bus.Publish(TopicOffline)
		}
	}

	return up
}
