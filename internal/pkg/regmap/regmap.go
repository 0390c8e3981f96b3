// Package regmap resolves an IC variant to its register layout.
//
// The two tables below are reproduced exactly as shipped in the vendor
// firmware documentation. They are wire contracts with real silicon and
// must never be edited or re-derived.
package regmap

import "errors"

type ICType int

const (
	Normandy ICType = iota
	Yellowstone
)

func (t ICType) String() string {
	switch t {
	case Normandy:
		return "Normandy"
	case Yellowstone:
		return "Yellowstone"
	default:
		return "Unknown"
	}
}

var ErrUnknownVariant = errors.New("regmap: unknown IC variant")

// RegisterMap is the fixed register table of one IC variant. All addresses
// are 16-bit bus addresses; lengths are in bytes.
type RegisterMap struct {
	VersionBase uint16
	VersionLen  uint8

	PID    uint16
	PIDLen uint8

	VID    uint16
	VIDLen uint8

	SensorID     uint16
	SensorIDMask uint8

	CfgAddr   uint16
	ESD       uint16
	Command   uint16
	Coor      uint16
	FwRequest uint16
	Proximity uint16
}

var normandy = RegisterMap{
	VersionBase:  0x452c,
	VersionLen:   72,
	PID:          0x4535,
	PIDLen:       4,
	VID:          0x453d,
	VIDLen:       4,
	SensorID:     0x4541,
	SensorIDMask: 0x0f,
	CfgAddr:      0x6f78,
	ESD:          0x30f3,
	Command:      0x6f68,
	Coor:         0x4100,
	FwRequest:    0,
	Proximity:    0,
}

var yellowstone = RegisterMap{
	VersionBase:  0x4014,
	VersionLen:   135,
	PID:          0x4022,
	PIDLen:       4,
	VID:          0x402a,
	VIDLen:       4,
	SensorID:     0x402f,
	SensorIDMask: 0x0f,
	CfgAddr:      0x96f8,
	ESD:          0x4166,
	Command:      0x4160,
	Coor:         0x4180,
	FwRequest:    0x4180,
	Proximity:    0x4182,
}

// Resolve returns the register table for the given IC variant.
func Resolve(ic ICType) (RegisterMap, error) {
	switch ic {
	case Normandy:
		return normandy, nil
	case Yellowstone:
		return yellowstone, nil
	default:
		return RegisterMap{}, ErrUnknownVariant
	}
}
