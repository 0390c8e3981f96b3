// Package proto implements the controller wire protocol: command packet
// encoding, version block decoding and touch frame decoding. Everything
// here is a pure function of its input buffer; bus access, retry and
// timing live in the hardware layer.
package proto

import "errors"

const (
	// MaxTouch is the number of simultaneous touch points a frame can carry.
	MaxTouch = 10
	// MaxTPKey is the number of panel keys reported in the key bitmask.
	MaxTPKey = 4
	// MaxPenKey is the number of pen-side buttons.
	MaxPenKey = 2
	// MaxPenPressure is the full-scale pen pressure value.
	MaxPenPressure = 4096

	// MaxCmdLen is the command payload limit in bytes.
	MaxCmdLen = 8

	PIDMaxLen = 8
	VIDMaxLen = 8
)

// Raw status byte flags, first byte of every frame.
const (
	StatusTouch   = 0x80
	StatusRequest = 0x40
	StatusGesture = 0x20
	StatusHotknot = 0x10
)

// EventType is a bitmask of what a decoded frame contains.
type EventType uint8

const (
	EventInvalid EventType = 0
	EventTouch   EventType = 1 << 0
	EventPen     EventType = 1 << 1
	EventRequest EventType = 1 << 2
	EventGesture EventType = 1 << 3
	EventHotknot EventType = 1 << 4
)

func (t EventType) Has(flag EventType) bool {
	return t&flag != 0
}

// PointStatus is the per-record state nibble.
type PointStatus int

const (
	PointNone PointStatus = iota
	PointRelease
	PointTouch
)

// Point is one decoded touch coordinate record.
type Point struct {
	Status PointStatus
	X, Y   uint16
	W      uint16 // width / minor axis
	P      uint16 // pressure
}

// Key is one panel or pen key state. Code is assigned by the core layer
// from the board key map; the decoder only reports Status.
type Key struct {
	Status PointStatus
	Code   int
}

// Pen tool types.
const (
	ToolPen = iota
	ToolRubber
)

// Pen is the decoded stylus record.
type Pen struct {
	Status PointStatus
	Tool   int
	X, Y   uint16
	P      uint16
	TiltX  int8
	TiltY  int8
	Keys   [MaxPenKey]Key
}

// TouchEvent is one fully decoded frame. It is a value with no persistent
// identity; the decoder produces a fresh one per call.
type TouchEvent struct {
	Type     EventType
	TouchNum int
	// Overflow records that the raw point count exceeded MaxTouch and was
	// clamped. Informational, not an error.
	Overflow bool
	Points   [MaxTouch]Point
	Keys     [MaxTPKey]Key
	Pen      Pen
}

var (
	ErrChecksum       = errors.New("proto: frame checksum mismatch")
	ErrInvalidLength  = errors.New("proto: buffer length invalid")
	ErrPayloadTooLarge = errors.New("proto: command payload exceeds 8 bytes")
)
