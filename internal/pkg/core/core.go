// Package core aggregates everything into a Device: board data, the bound
// register map, the hardware capability set, the irq-driven event path
// and the ESD watchdog. One Device exists per attached chip; whoever
// manages attach/detach owns it, there is no singleton.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Rettrjo/gtx8/internal/pkg/board"
	"github.com/Rettrjo/gtx8/internal/pkg/bus"
	"github.com/Rettrjo/gtx8/internal/pkg/hw"
	"github.com/Rettrjo/gtx8/internal/pkg/logger"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
	"github.com/Rettrjo/gtx8/internal/pkg/sink"
)

var log = logger.GetLogger()

// Platform carries out the pin and power requests the core cannot do
// itself: reset line, power rail, irq routing.
type Platform interface {
	AssertReset(ctx context.Context) error
	SetPower(ctx context.Context, on bool) error
	// RequestIRQ routes the interrupt line with the given trigger type and
	// returns a channel delivering one value per edge.
	RequestIRQ(trigger uint32) (<-chan struct{}, error)
	EnableIRQ(enable bool) error
}

type Device struct {
	cfg      board.BoardConfig
	ic       regmap.ICType
	ops      hw.Ops
	platform Platform
	out      sink.Sink

	version proto.Version

	powerOn    atomic.Bool
	irqEnabled atomic.Bool
	suspended  atomic.Bool
	irqCount   atomic.Uint64

	esd *Watchdog

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Attach powers the chip up, probes it, binds its register map and starts
// the event loop and the ESD watchdog. The returned Device owns both
// goroutines until Close.
func Attach(ctx context.Context, cfg board.BoardConfig, ic regmap.ICType, b bus.Bus, platform Platform, out sink.Sink) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ops, err := hw.New(ic, b, platform)
	if err != nil {
		return nil, err
	}

	d := &Device{
		cfg:      cfg,
		ic:       ic,
		ops:      ops,
		platform: platform,
		out:      out,
	}

	if err := d.powerUp(ctx); err != nil {
		return nil, err
	}
	if err := ops.Init(ctx); err != nil {
		_ = d.powerDown(ctx)
		return nil, fmt.Errorf("init %s: %w", ic, err)
	}

	// Chip identity is best-effort; the driver works without it.
	if v, verr := ops.ReadVersion(ctx); verr != nil {
		log.Info(fmt.Sprintf("version read failed: %v", verr), logger.Warning)
	} else {
		d.version = v
		log.Info(fmt.Sprintf("chip %s pid %q vid %s sensor %d", ic, v.PID, v.VID, v.SensorID), logger.Info)
	}

	irqCh, err := platform.RequestIRQ(cfg.IrqFlags)
	if err != nil {
		_ = d.powerDown(ctx)
		return nil, fmt.Errorf("request irq: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.esd = newWatchdog(ops, cfg.EsdDefaultOn, esdTickInterval)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.eventLoop(runCtx, irqCh)
	}()
	go func() {
		defer d.wg.Done()
		d.esd.run(runCtx)
	}()

	d.enableIrq(true)
	return d, nil
}

// Close stops the watchdog and the event loop, disables the irq and cuts
// power. The Device is unusable afterwards.
func (d *Device) Close(ctx context.Context) error {
	d.cancel()
	d.wg.Wait()
	d.enableIrq(false)
	return d.powerDown(ctx)
}

func (d *Device) Version() proto.Version {
	return d.version
}

func (d *Device) IRQCount() uint64 {
	return d.irqCount.Load()
}

func (d *Device) Suspended() bool {
	return d.suspended.Load()
}

func (d *Device) Watchdog() *Watchdog {
	return d.esd
}

func (d *Device) powerUp(ctx context.Context) error {
	if err := d.platform.SetPower(ctx, true); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	d.powerOn.Store(true)
	return wait(ctx, d.cfg.PowerOnDelay)
}

func (d *Device) powerDown(ctx context.Context) error {
	if err := d.platform.SetPower(ctx, false); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	d.powerOn.Store(false)
	return wait(ctx, d.cfg.PowerOffDelay)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (d *Device) enableIrq(enable bool) {
	if err := d.platform.EnableIRQ(enable); err != nil {
		log.Info(fmt.Sprintf("irq enable=%v failed: %v", enable, err), logger.Warning)
		return
	}
	d.irqEnabled.Store(enable)
}

// eventLoop is the interrupt-driven event path: one frame read and decode
// per irq edge. It never blocks except inside the bus calls themselves.
func (d *Device) eventLoop(ctx context.Context, irq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-irq:
			if !ok {
				return
			}
			d.irqCount.Inc()
			if d.suspended.Load() {
				continue
			}

			ev, err := d.ops.HandleEvent(ctx)
			switch {
			case errors.Is(err, proto.ErrChecksum):
				// corrupted frame: discard whole, never emit partial points
				log.Info("frame discarded: checksum mismatch", logger.Debug)
			case err != nil:
				log.Info(fmt.Sprintf("event read failed: %v", err), logger.Warning)
			case ev.Type == proto.EventInvalid:
				// valid "nothing happened"
			default:
				if ev.Overflow {
					log.Info("touch count overflow, clamped", logger.Warning)
				}
				if ev.Type.Has(proto.EventRequest) {
					log.Info("firmware request pending", logger.Info)
				}
				d.dispatch(ev)
			}
		}
	}
}

// dispatch assigns panel key codes from the board key map and hands the
// event to the sink.
func (d *Device) dispatch(ev proto.TouchEvent) {
	for i := range ev.Keys {
		if i < len(d.cfg.KeyMap) {
			ev.Keys[i].Code = d.cfg.KeyMap[i]
		}
	}
	if d.out != nil {
		d.out.Dispatch(ev)
	}
}

// Suspend puts the device to sleep: watchdog off first so no tick races
// the sleep command, then irq off, then the chip itself.
func (d *Device) Suspend(ctx context.Context) error {
	if !d.suspended.CAS(false, true) {
		return nil
	}

	d.esd.Notify(NotifySuspend)
	d.enableIrq(false)
	if err := d.ops.Suspend(ctx); err != nil {
		log.Info(fmt.Sprintf("chip suspend failed: %v", err), logger.Warning)
	}
	log.Info("device suspended", logger.Info)
	return nil
}

// Resume wakes the chip back up and restores the watchdog to whatever
// state it held before suspend.
func (d *Device) Resume(ctx context.Context) error {
	if !d.suspended.CAS(true, false) {
		return nil
	}

	if err := d.ops.Resume(ctx); err != nil {
		log.Info(fmt.Sprintf("chip resume failed: %v", err), logger.Warning)
	}
	d.enableIrq(true)
	d.esd.Notify(NotifyResume)
	log.Info("device resumed", logger.Info)
	return nil
}

// DownloadConfig verifies a config blob container and downloads its
// payload to the chip. The watchdog is held off the bus for the duration,
// mirroring the explicit override used around firmware updates.
func (d *Device) DownloadConfig(ctx context.Context, blob []byte) error {
	payload, err := board.ParseConfigBin(blob, d.ic)
	if err != nil {
		return err
	}

	d.esd.Notify(NotifyEsdOff)
	defer d.esd.Notify(NotifyEsdOn)

	if err := d.ops.SendConfig(ctx, payload); err != nil {
		return fmt.Errorf("config download: %w", err)
	}
	log.Info(fmt.Sprintf("config downloaded, %d bytes", len(payload)), logger.Info)
	return nil
}
