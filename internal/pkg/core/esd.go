package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Rettrjo/gtx8/internal/pkg/hw"
	"github.com/Rettrjo/gtx8/internal/pkg/logger"
)

// NotifyEvent is a lifecycle notification delivered to the ESD watchdog.
type NotifyEvent int

const (
	NotifySuspend NotifyEvent = iota
	NotifyResume
	NotifyEsdOff
	NotifyEsdOn
)

const esdTickInterval = 2 * time.Second

// Watchdog periodically probes the chip with a heartbeat write/readback
// and recovers a wedged chip with a single reset. It has two states,
// disabled and armed, and no terminal state: it ticks until device
// teardown.
type Watchdog struct {
	ops      hw.Ops
	interval time.Duration

	armed              atomic.Bool
	armedBeforeSuspend atomic.Bool
	failures           atomic.Uint32
	lastBeat           atomic.Int64 // unix nanos of the last good heartbeat
}

func newWatchdog(ops hw.Ops, defaultOn bool, interval time.Duration) *Watchdog {
	w := &Watchdog{ops: ops, interval: interval}
	w.armed.Store(defaultOn)
	return w
}

func (w *Watchdog) Armed() bool {
	return w.armed.Load()
}

// Failures is the consecutive heartbeat failure count. It exists for
// diagnostics and future policy; recovery itself fires on the first
// failure.
func (w *Watchdog) Failures() uint32 {
	return w.failures.Load()
}

// LastBeat is when the chip last answered its heartbeat.
func (w *Watchdog) LastBeat() time.Time {
	return time.Unix(0, w.lastBeat.Load())
}

// Notify drives the watchdog state machine from suspend/resume control
// flow and from explicit external overrides (e.g. firmware update).
func (w *Watchdog) Notify(ev NotifyEvent) {
	switch ev {
	case NotifySuspend:
		w.armedBeforeSuspend.Store(w.armed.Load())
		w.armed.Store(false)
	case NotifyResume:
		w.armed.Store(w.armedBeforeSuspend.Load())
	case NotifyEsdOff:
		w.armed.Store(false)
	case NotifyEsdOn:
		w.armed.Store(true)
	}
	log.Info(fmt.Sprintf("esd notify %d, armed: %v", ev, w.armed.Load()), logger.Debug)
}

func (w *Watchdog) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Info("esd watchdog running", logger.Debug)
	for {
		select {
		case <-ctx.Done():
			log.Info("esd watchdog stopped", logger.Debug)
			return
		case <-ticker.C:
			if !w.armed.Load() {
				continue
			}
			w.tick(ctx)
		}
	}
}

func (w *Watchdog) tick(ctx context.Context) {
	err := w.ops.CheckHealth(ctx)
	if err == nil {
		w.failures.Store(0)
		w.lastBeat.Store(time.Now().UnixNano())
		return
	}

	n := w.failures.Inc()
	log.Info(fmt.Sprintf("heartbeat failed: %v", err), zap.Uint32("failures", n), logger.Warning)

	// A suspend may have landed while the heartbeat was in flight; a
	// reset now would wake a chip the host just put to sleep.
	if !w.armed.Load() {
		return
	}

	if err := w.ops.Reset(ctx); err != nil {
		log.Info(fmt.Sprintf("recovery reset failed: %v", err), logger.Error)
		return
	}
	log.Info("chip recovered by reset", logger.Info)
}
