// Package i2c adapts a periph.io I²C device to the driver bus contract.
// The controller expects the register address as a 16-bit big-endian
// prefix on every transfer.
package i2c

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/Rettrjo/gtx8/internal/pkg/bus"
)

type Adapter struct {
	dev i2c.Dev
}

func New(b i2c.Bus, addr uint16) *Adapter {
	return &Adapter{dev: i2c.Dev{Bus: b, Addr: addr}}
}

func (a *Adapter) Read(ctx context.Context, addr uint16, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", bus.ErrTimeout, err)
	}

	w := []byte{byte(addr >> 8), byte(addr)}
	r := make([]byte, n)
	if err := a.dev.Tx(w, r); err != nil {
		return nil, fmt.Errorf("%w: read 0x%04x: %v", bus.ErrBus, addr, err)
	}
	return r, nil
}

func (a *Adapter) Write(ctx context.Context, addr uint16, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrTimeout, err)
	}

	w := make([]byte, 0, 2+len(data))
	w = append(w, byte(addr>>8), byte(addr))
	w = append(w, data...)
	if err := a.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("%w: write 0x%04x: %v", bus.ErrBus, addr, err)
	}
	return nil
}
