package hw

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rettrjo/gtx8/internal/pkg/bus"
	"github.com/Rettrjo/gtx8/internal/pkg/logger"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

const (
	retryDelay = 20 * time.Millisecond
	resetDelay = 100 * time.Millisecond
)

// base carries the machinery shared by both variants: the bound register
// table, the transport with its retry discipline, and the mutex enforcing
// one bus transaction at a time.
type base struct {
	bus  bus.Bus
	rst  Resetter
	regs regmap.RegisterMap

	mu sync.Mutex
}

func (d *base) Read(ctx context.Context, addr uint16, n int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readLocked(ctx, addr, n)
}

func (d *base) Write(ctx context.Context, addr uint16, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, addr, data)
}

func (d *base) readLocked(ctx context.Context, addr uint16, n int) ([]byte, error) {
	var err error
	for attempt := 1; attempt <= Retries; attempt++ {
		var data []byte
		data, err = d.bus.Read(ctx, addr, n)
		if err == nil {
			return data, nil
		}
		log.Info(fmt.Sprintf("read 0x%04x failed: %v", addr, err),
			zap.Int("attempt", attempt), logger.Warning)
		if attempt < Retries {
			if werr := sleep(ctx, retryDelay); werr != nil {
				return nil, werr
			}
		}
	}
	return nil, err
}

func (d *base) writeLocked(ctx context.Context, addr uint16, data []byte) error {
	var err error
	for attempt := 1; attempt <= Retries; attempt++ {
		err = d.bus.Write(ctx, addr, data)
		if err == nil {
			return nil
		}
		log.Info(fmt.Sprintf("write 0x%04x failed: %v", addr, err),
			zap.Int("attempt", attempt), logger.Warning)
		if attempt < Retries {
			if werr := sleep(ctx, retryDelay); werr != nil {
				return werr
			}
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", bus.ErrTimeout, ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// Reset asserts the reset line and waits for the chip to come back up.
// The bus mutex is held across the reset so no transaction straddles it.
func (d *base) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rst.AssertReset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return sleep(ctx, resetDelay)
}

// Detect probes the product-id window. A chip that is absent or held in
// reset reads back all-zero or all-ones.
func (d *base) Detect(ctx context.Context) error {
	pid, err := d.Read(ctx, d.regs.PID, int(d.regs.PIDLen))
	if err != nil {
		return err
	}
	if bytes.Equal(pid, bytes.Repeat([]byte{0x00}, len(pid))) ||
		bytes.Equal(pid, bytes.Repeat([]byte{0xff}, len(pid))) {
		return fmt.Errorf("%w: pid window %#x", ErrNotDetected, pid)
	}
	return nil
}

func (d *base) Init(ctx context.Context) error {
	if err := d.Reset(ctx); err != nil {
		return err
	}
	return d.Detect(ctx)
}

func (d *base) ReadVersion(ctx context.Context) (proto.Version, error) {
	raw, err := d.Read(ctx, d.regs.VersionBase, int(d.regs.VersionLen))
	if err != nil {
		return proto.Version{}, err
	}

	v := proto.DecodeVersion(raw, d.regs)
	if !v.Valid {
		log.Info("version block invalid, continuing without chip identity", logger.Warning)
	}
	return v, nil
}

// CheckHealth performs the heartbeat: write the sentinel to the ESD
// register and read it back. The mutex is held across both transfers so
// the pair cannot interleave with an in-flight touch frame read.
func (d *base) CheckHealth(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeLocked(ctx, d.regs.ESD, []byte{EsdTickData}); err != nil {
		return err
	}
	got, err := d.readLocked(ctx, d.regs.ESD, 1)
	if err != nil {
		return err
	}
	if got[0] != EsdTickData {
		return fmt.Errorf("%w: readback 0x%02x", ErrHealth, got[0])
	}
	return nil
}

// handleEvent reads one frame from the coordinate register, clears the
// status byte so the chip can latch the next frame, and decodes outside
// the bus lock.
func (d *base) handleEvent(ctx context.Context, ic regmap.ICType) (proto.TouchEvent, error) {
	d.mu.Lock()
	raw, err := d.readLocked(ctx, d.regs.Coor, proto.FrameLen(ic))
	if err == nil && raw[0] != 0 {
		if werr := d.writeLocked(ctx, d.regs.Coor, []byte{0x00}); werr != nil {
			log.Info(fmt.Sprintf("status clear failed: %v", werr), logger.Warning)
		}
	}
	d.mu.Unlock()

	if err != nil {
		return proto.TouchEvent{}, err
	}
	return proto.DecodeFrame(raw, ic)
}

func (d *base) sendConfigLocked(ctx context.Context, wire []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, d.regs.CfgAddr, wire)
}

// pad to a 16-bit word boundary before the config trailer is computed
func padEven(data []byte) []byte {
	if len(data)%2 != 0 {
		return append(data, 0x00)
	}
	return data
}
