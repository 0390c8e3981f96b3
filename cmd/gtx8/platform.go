package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/Rettrjo/gtx8/internal/pkg/board"
)

// irq trigger types, matching the board config irq_flags values
const (
	irqTriggerRising  = 1
	irqTriggerFalling = 2
	irqTriggerBoth    = 3
)

// gpioPlatform implements core.Platform on top of periph.io pins.
type gpioPlatform struct {
	reset gpio.PinIO
	irq   gpio.PinIO
	power gpio.PinIO // nil when the rail is fixed

	irqEnabled atomic.Bool
	halted     atomic.Bool
}

func newPlatform(cfg board.BoardConfig) (*gpioPlatform, error) {
	reset := gpioreg.ByName(cfg.ResetPin)
	if reset == nil {
		return nil, fmt.Errorf("reset pin %q not found", cfg.ResetPin)
	}
	irq := gpioreg.ByName(cfg.IrqPin)
	if irq == nil {
		return nil, fmt.Errorf("irq pin %q not found", cfg.IrqPin)
	}

	var power gpio.PinIO
	if cfg.VddPin != "" {
		power = gpioreg.ByName(cfg.VddPin)
		if power == nil {
			return nil, fmt.Errorf("vdd pin %q not found", cfg.VddPin)
		}
	}

	return &gpioPlatform{reset: reset, irq: irq, power: power}, nil
}

// AssertReset pulses the reset line low. The chip samples its address
// select pins on the rising edge; the 2ms low time is well above the
// datasheet minimum.
func (p *gpioPlatform) AssertReset(ctx context.Context) error {
	if err := p.reset.Out(gpio.Low); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Millisecond):
	}
	return p.reset.Out(gpio.High)
}

func (p *gpioPlatform) SetPower(_ context.Context, on bool) error {
	if p.power == nil {
		return nil
	}
	return p.power.Out(gpio.Level(on))
}

func (p *gpioPlatform) RequestIRQ(trigger uint32) (<-chan struct{}, error) {
	var edge gpio.Edge
	switch trigger {
	case irqTriggerRising:
		edge = gpio.RisingEdge
	case irqTriggerBoth:
		edge = gpio.BothEdges
	default:
		edge = gpio.FallingEdge
	}

	if err := p.irq.In(gpio.PullUp, edge); err != nil {
		return nil, fmt.Errorf("irq pin setup: %w", err)
	}

	ch := make(chan struct{}, 16)
	go func() {
		for {
			if !p.irq.WaitForEdge(-1) {
				if p.halted.Load() {
					close(ch)
					return
				}
				continue
			}
			if !p.irqEnabled.Load() {
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
				// the event loop is behind, the chip keeps the frame latched
			}
		}
	}()
	return ch, nil
}

// EnableIRQ masks or unmasks edge delivery. The pin keeps watching; a
// masked edge is simply dropped, like a disabled interrupt line.
func (p *gpioPlatform) EnableIRQ(enable bool) error {
	p.irqEnabled.Store(enable)
	return nil
}

func (p *gpioPlatform) Close() {
	p.halted.Store(true)
	_ = p.irq.Halt()
}
