package proto

import (
	"encoding/hex"
	"strings"

	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

// Version is the chip-reported firmware identity, read once at attach and
// treated as read-only until a re-probe.
type Version struct {
	Valid    bool
	PID      string // product id, printable, max 8 chars
	VID      string // firmware version code, hex, max 8 chars
	CID      uint8  // customer id
	SensorID uint8
}

// DecodeVersion slices the raw version block per the register table.
// Version info is best-effort: a block of unexpected length yields
// Valid=false rather than an error, since the rest of the driver works
// fine without it.
func DecodeVersion(raw []byte, regs regmap.RegisterMap) Version {
	if len(raw) != int(regs.VersionLen) {
		return Version{}
	}

	pidOff := int(regs.PID - regs.VersionBase)
	vidOff := int(regs.VID - regs.VersionBase)
	sidOff := int(regs.SensorID - regs.VersionBase)

	pid := raw[pidOff : pidOff+int(regs.PIDLen)]
	vid := raw[vidOff : vidOff+int(regs.VIDLen)]

	return Version{
		Valid:    true,
		PID:      strings.TrimRight(string(pid), "\x00"),
		VID:      hex.EncodeToString(vid),
		CID:      raw[0],
		SensorID: raw[sidOff] & regs.SensorIDMask,
	}
}
