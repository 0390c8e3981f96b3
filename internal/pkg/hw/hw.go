// Package hw implements the hardware operation capability set: one
// implementation per IC variant, selected once at attach time. All
// bus-facing operations carry a fixed retry budget and serialize on a
// per-device mutex so that exactly one bus transaction is in flight at a
// time, including the ESD heartbeat write/readback pair.
package hw

import (
	"context"
	"errors"

	"github.com/Rettrjo/gtx8/internal/pkg/bus"
	"github.com/Rettrjo/gtx8/internal/pkg/logger"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

var log = logger.GetLogger()

const (
	// Retries is the bus retry budget. Every implementation must retry
	// Read/Write/SendCmd this many times before surfacing a bus error.
	Retries = 3

	// EsdTickData is the heartbeat sentinel written to the ESD register.
	EsdTickData = 0xaa
)

var (
	// ErrHealth is a failed heartbeat readback; the watchdog treats it as
	// a wedged chip and resets.
	ErrHealth = errors.New("hw: heartbeat mismatch")
	// ErrNotDetected means the chip did not answer its identity probe.
	ErrNotDetected = errors.New("hw: chip not detected")
	// ErrUninitializedCmd is a command sent without going through the
	// encoder first.
	ErrUninitializedCmd = errors.New("hw: uninitialized command")
)

// Resetter asserts the controller reset line. Implemented by the platform
// layer; the core never toggles pins itself.
type Resetter interface {
	AssertReset(ctx context.Context) error
}

// Ops is the polymorphic hardware contract. The rest of the driver talks
// to the chip exclusively through this interface.
type Ops interface {
	Init(ctx context.Context) error
	Detect(ctx context.Context) error
	Reset(ctx context.Context) error
	Read(ctx context.Context, addr uint16, n int) ([]byte, error)
	Write(ctx context.Context, addr uint16, data []byte) error
	SendCmd(ctx context.Context, cmd proto.Command) error
	SendConfig(ctx context.Context, cfg []byte) error
	ReadVersion(ctx context.Context) (proto.Version, error)
	HandleEvent(ctx context.Context) (proto.TouchEvent, error)
	CheckHealth(ctx context.Context) error
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
}

// New binds the register map for the given variant and returns its
// hardware implementation.
func New(ic regmap.ICType, b bus.Bus, rst Resetter) (Ops, error) {
	regs, err := regmap.Resolve(ic)
	if err != nil {
		return nil, err
	}

	switch ic {
	case regmap.Normandy:
		return &normandy{base{bus: b, rst: rst, regs: regs}}, nil
	default:
		return &yellowstone{base{bus: b, rst: rst, regs: regs}}, nil
	}
}
