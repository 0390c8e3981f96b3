package proto

import (
	"encoding/binary"
	"fmt"

	"github.com/Rettrjo/gtx8/internal/pkg/checksum"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

// Frame geometry. Both variants use fixed-size frames so every region,
// including the pen block, sits at a fixed offset from the coordinate
// register.
const (
	pointSize = 8

	// Normandy: status(1) + points(10*8) + keys(1) + u8 trailer(1).
	normandyKeyOff   = 1 + MaxTouch*pointSize
	NormandyFrameLen = normandyKeyOff + 2

	// Yellowstone: status(1) + info(1) + points(10*8) + keys(1) +
	// be16 subtractive trailer(2), then the optional pen block:
	// record(12) + be16 subtractive trailer(2).
	yellowstoneKeyOff   = 2 + MaxTouch*pointSize
	YellowstoneFrameLen = yellowstoneKeyOff + 3
	PenOffset           = YellowstoneFrameLen
	PenBlockLen         = 14
	YellowstoneFullLen  = YellowstoneFrameLen + PenBlockLen

	// Yellowstone info byte: bit 7 pen present, low 5 bits touch count.
	penPresentFlag = 0x80
	countMask      = 0x1f
)

// FrameLen returns how many bytes the hardware layer must read from the
// coordinate register for one frame of the given variant.
func FrameLen(ic regmap.ICType) int {
	if ic == regmap.Yellowstone {
		return YellowstoneFullLen
	}
	return NormandyFrameLen
}

// DecodeFrame parses one raw frame read from the coordinate register.
//
// A checksum mismatch on any protected region voids the whole event: the
// caller gets ErrChecksum and zero records, never partial data. A status
// byte of zero is the valid "nothing happened" result, not an error.
// Decoding never blocks and never retries.
func DecodeFrame(raw []byte, ic regmap.ICType) (TouchEvent, error) {
	switch ic {
	case regmap.Normandy:
		return decodeNormandy(raw)
	case regmap.Yellowstone:
		return decodeYellowstone(raw)
	default:
		return TouchEvent{}, regmap.ErrUnknownVariant
	}
}

func eventFlags(status byte) EventType {
	var t EventType
	if status&StatusTouch != 0 {
		t |= EventTouch
	}
	if status&StatusRequest != 0 {
		t |= EventRequest
	}
	if status&StatusGesture != 0 {
		t |= EventGesture
	}
	if status&StatusHotknot != 0 {
		t |= EventHotknot
	}
	return t
}

func decodePoint(rec []byte) Point {
	st := PointStatus(rec[0] >> 4)
	if st > PointTouch {
		st = PointTouch
	}
	return Point{
		Status: st,
		X:      binary.LittleEndian.Uint16(rec[1:3]),
		Y:      binary.LittleEndian.Uint16(rec[3:5]),
		W:      binary.LittleEndian.Uint16(rec[5:7]),
		P:      uint16(rec[7]),
	}
}

func decodeKeys(mask byte, ev *TouchEvent) {
	for i := 0; i < MaxTPKey; i++ {
		if mask&(1<<i) != 0 {
			ev.Keys[i].Status = PointTouch
		}
	}
}

func clampCount(n int, ev *TouchEvent) int {
	if n > MaxTouch {
		ev.Overflow = true
		return MaxTouch
	}
	return n
}

func decodeNormandy(raw []byte) (TouchEvent, error) {
	if len(raw) < NormandyFrameLen {
		return TouchEvent{}, fmt.Errorf("%w: got %d bytes, need %d", ErrInvalidLength, len(raw), NormandyFrameLen)
	}

	status := raw[0]
	if status == 0 {
		return TouchEvent{}, nil
	}

	// The whole frame through the key byte is protected by the u8 trailer.
	if checksum.Sum8(raw[:normandyKeyOff+1]) != raw[normandyKeyOff+1] {
		return TouchEvent{}, ErrChecksum
	}

	var ev TouchEvent
	ev.Type = eventFlags(status)

	if ev.Type.Has(EventTouch) {
		ev.TouchNum = clampCount(int(status&0x0f), &ev)
		for i := 0; i < ev.TouchNum; i++ {
			ev.Points[i] = decodePoint(raw[1+i*pointSize:])
		}
		decodeKeys(raw[normandyKeyOff], &ev)
	}

	return ev, nil
}

func decodeYellowstone(raw []byte) (TouchEvent, error) {
	if len(raw) < YellowstoneFrameLen {
		return TouchEvent{}, fmt.Errorf("%w: got %d bytes, need %d", ErrInvalidLength, len(raw), YellowstoneFrameLen)
	}

	status := raw[0]
	if status == 0 {
		return TouchEvent{}, nil
	}

	// Subtractive trailer: payload sum minus the be16 trailer balances to 0.
	if checksum.Sum8Sub16(raw[:YellowstoneFrameLen]) != 0 {
		return TouchEvent{}, ErrChecksum
	}

	var ev TouchEvent
	ev.Type = eventFlags(status)
	info := raw[1]

	penPresent := info&penPresentFlag != 0
	if penPresent {
		// Validate the pen block before emitting anything: all-or-nothing
		// covers the pen region too.
		if len(raw) < YellowstoneFullLen {
			return TouchEvent{}, fmt.Errorf("%w: pen block truncated", ErrInvalidLength)
		}
		if checksum.Sum8Sub16(raw[PenOffset:YellowstoneFullLen]) != 0 {
			return TouchEvent{}, ErrChecksum
		}
	}

	if ev.Type.Has(EventTouch) {
		ev.TouchNum = clampCount(int(info&countMask), &ev)
		for i := 0; i < ev.TouchNum; i++ {
			ev.Points[i] = decodePoint(raw[2+i*pointSize:])
		}
		decodeKeys(raw[yellowstoneKeyOff], &ev)
	}

	if penPresent {
		ev.Type |= EventPen
		ev.Pen = decodePen(raw[PenOffset : PenOffset+PenBlockLen-2])
	}

	return ev, nil
}

func decodePen(rec []byte) Pen {
	st := PointStatus(rec[0] >> 4)
	if st > PointTouch {
		st = PointTouch
	}
	tool := ToolPen
	if rec[0]&0x0f == 1 {
		tool = ToolRubber
	}

	p := binary.LittleEndian.Uint16(rec[5:7])
	if p > MaxPenPressure {
		p = MaxPenPressure
	}

	pen := Pen{
		Status: st,
		Tool:   tool,
		X:      binary.LittleEndian.Uint16(rec[1:3]),
		Y:      binary.LittleEndian.Uint16(rec[3:5]),
		P:      p,
		TiltX:  int8(rec[7]),
		TiltY:  int8(rec[8]),
	}
	for i := 0; i < MaxPenKey; i++ {
		if rec[9]&(1<<i) != 0 {
			pen.Keys[i].Status = PointTouch
		}
	}
	return pen
}
