package hw

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Rettrjo/gtx8/internal/pkg/checksum"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

// Yellowstone command opcodes.
const (
	yellowstoneSleepCmd = 0x84
)

type yellowstone struct {
	base
}

// SendCmd transmits the command payload with a big-endian 16-bit sum
// trailer, the same subtractive scheme the frame checksum uses.
func (d *yellowstone) SendCmd(ctx context.Context, cmd proto.Command) error {
	if cmd.Initialized == 0 {
		return ErrUninitializedCmd
	}

	wire := make([]byte, 0, int(cmd.Length)+2)
	wire = append(wire, cmd.Data[:cmd.Length]...)
	var sum uint16
	for _, b := range wire {
		sum += uint16(b)
	}
	wire = binary.BigEndian.AppendUint16(wire, sum)

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, uint16(cmd.Reg), wire)
}

// SendConfig downloads a config blob with a big-endian 16-bit word-sum
// trailer.
func (d *yellowstone) SendConfig(ctx context.Context, cfg []byte) error {
	wire := padEven(append([]byte(nil), cfg...))
	sum := checksum.Sum16BE(wire)
	wire = binary.BigEndian.AppendUint16(wire, sum)
	return d.sendConfigLocked(ctx, wire)
}

func (d *yellowstone) HandleEvent(ctx context.Context) (proto.TouchEvent, error) {
	return d.handleEvent(ctx, regmap.Yellowstone)
}

func (d *yellowstone) Suspend(ctx context.Context) error {
	cmd, err := proto.NewCommand(d.regs.Command, []byte{yellowstoneSleepCmd})
	if err != nil {
		return err
	}
	if err := d.SendCmd(ctx, cmd); err != nil {
		return fmt.Errorf("suspend: %w", err)
	}
	return nil
}

func (d *yellowstone) Resume(ctx context.Context) error {
	return d.Reset(ctx)
}

var _ Ops = (*yellowstone)(nil)
