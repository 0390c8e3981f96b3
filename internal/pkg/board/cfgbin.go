package board

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Rettrjo/gtx8/internal/pkg/checksum"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

// Config blob container: a 9-byte header (magic, IC variant tag, be32
// payload length), the raw register payload, and a 32-bit whole-payload
// checksum trailer. Normandy containers carry a little-endian word sum
// encoded little-endian; Yellowstone big-endian both ways.
var cfgMagic = []byte("GXCF")

const cfgHeaderLen = 4 + 1 + 4

var ErrBadContainer = errors.New("board: malformed config container")

// ParseConfigBin verifies a config blob container and returns the register
// payload ready for download.
func ParseConfigBin(data []byte, ic regmap.ICType) ([]byte, error) {
	if len(data) < cfgHeaderLen+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadContainer, len(data))
	}
	if !bytes.Equal(data[:4], cfgMagic) {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrBadContainer, data[:4])
	}
	if regmap.ICType(data[4]) != ic {
		return nil, fmt.Errorf("%w: container built for %s, chip is %s",
			ErrBadContainer, regmap.ICType(data[4]), ic)
	}

	n := int(binary.BigEndian.Uint32(data[5:9]))
	if len(data) != cfgHeaderLen+n+4 {
		return nil, fmt.Errorf("%w: payload length %d does not match container size %d",
			ErrBadContainer, n, len(data))
	}
	payload := data[cfgHeaderLen : cfgHeaderLen+n]
	trailer := data[cfgHeaderLen+n:]

	// The word sums run over a copy padded to a 32-bit boundary.
	padded := make([]byte, (n+3)&^3)
	copy(padded, payload)

	switch ic {
	case regmap.Normandy:
		if checksum.Sum32LE(padded) != binary.LittleEndian.Uint32(trailer) {
			return nil, proto.ErrChecksum
		}
	default:
		if checksum.Sum32BE(padded) != binary.BigEndian.Uint32(trailer) {
			return nil, proto.ErrChecksum
		}
	}
	return payload, nil
}
