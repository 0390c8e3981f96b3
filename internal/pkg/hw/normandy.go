package hw

import (
	"context"
	"fmt"

	"github.com/Rettrjo/gtx8/internal/pkg/checksum"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

// Normandy command opcodes.
const (
	normandySleepCmd = 0x05
)

type normandy struct {
	base
}

// SendCmd transmits the command payload with a two's-complement u8 trailer
// so the bytes on the wire sum to zero.
func (d *normandy) SendCmd(ctx context.Context, cmd proto.Command) error {
	if cmd.Initialized == 0 {
		return ErrUninitializedCmd
	}

	wire := make([]byte, 0, int(cmd.Length)+1)
	wire = append(wire, cmd.Data[:cmd.Length]...)
	wire = append(wire, 0-checksum.Sum8(wire))

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, uint16(cmd.Reg), wire)
}

// SendConfig downloads a config blob with a little-endian 16-bit word-sum
// trailer.
func (d *normandy) SendConfig(ctx context.Context, cfg []byte) error {
	wire := padEven(append([]byte(nil), cfg...))
	sum := checksum.Sum16LE(wire)
	wire = append(wire, byte(sum), byte(sum>>8))
	return d.sendConfigLocked(ctx, wire)
}

func (d *normandy) HandleEvent(ctx context.Context) (proto.TouchEvent, error) {
	return d.handleEvent(ctx, regmap.Normandy)
}

// Suspend sends the sleep command, putting the chip in low power mode.
func (d *normandy) Suspend(ctx context.Context) error {
	cmd, err := proto.NewCommand(d.regs.Command, []byte{normandySleepCmd})
	if err != nil {
		return err
	}
	if err := d.SendCmd(ctx, cmd); err != nil {
		return fmt.Errorf("suspend: %w", err)
	}
	return nil
}

// Resume wakes the chip with a hardware reset; there is no wake command on
// this family.
func (d *normandy) Resume(ctx context.Context) error {
	return d.Reset(ctx)
}

var _ Ops = (*normandy)(nil)
