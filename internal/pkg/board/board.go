// Package board holds the static per-board configuration. A BoardConfig
// is read once at attach time and never mutated afterwards.
package board

import (
	"fmt"
	"time"

	"github.com/Rettrjo/gtx8/internal/pkg/proto"
)

type BoardConfig struct {
	// analog rail
	AvddName string
	AvddLoad uint

	// pin names resolvable by the platform layer
	ResetPin string
	IrqPin   string
	VddPin   string
	IrqFlags uint32

	PowerOnDelay  time.Duration
	PowerOffDelay time.Duration

	SwapAxis  bool
	PanelMaxX int
	PanelMaxY int
	PanelMaxW int // major and minor
	PanelMaxP int // pressure

	// KeyMap assigns input key codes to the panel keys, at most 4.
	KeyMap []int

	FwName  string
	CfgName string

	EsdDefaultOn bool
}

func (c BoardConfig) Validate() error {
	if len(c.KeyMap) > proto.MaxTPKey {
		return fmt.Errorf("%w: key map has %d entries, max %d",
			proto.ErrInvalidLength, len(c.KeyMap), proto.MaxTPKey)
	}
	if c.ResetPin == "" || c.IrqPin == "" {
		return fmt.Errorf("board: reset_pin and irq_pin are required")
	}
	return nil
}
