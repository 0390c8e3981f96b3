package proto

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rettrjo/gtx8/internal/pkg/checksum"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
)

func pointRec(status byte, x, y, w uint16, p byte) []byte {
	rec := make([]byte, pointSize)
	rec[0] = status << 4
	binary.LittleEndian.PutUint16(rec[1:], x)
	binary.LittleEndian.PutUint16(rec[3:], y)
	binary.LittleEndian.PutUint16(rec[5:], w)
	rec[7] = p
	return rec
}

func sealNormandy(raw []byte) {
	raw[normandyKeyOff+1] = checksum.Sum8(raw[:normandyKeyOff+1])
}

// sealSub writes the be16 subtractive trailer over raw[from:to] so that
// Sum8Sub16 balances to zero.
func sealSub(raw []byte, from, to int) {
	var sum uint16
	for _, b := range raw[from : to-2] {
		sum += uint16(b)
	}
	binary.BigEndian.PutUint16(raw[to-2:], sum)
}

func normandyFrame(status byte, points [][]byte, keys byte) []byte {
	raw := make([]byte, NormandyFrameLen)
	raw[0] = status
	for i, rec := range points {
		copy(raw[1+i*pointSize:], rec)
	}
	raw[normandyKeyOff] = keys
	sealNormandy(raw)
	return raw
}

func yellowstoneFrame(status, info byte, points [][]byte, keys byte, pen []byte) []byte {
	raw := make([]byte, YellowstoneFullLen)
	raw[0] = status
	raw[1] = info
	for i, rec := range points {
		copy(raw[2+i*pointSize:], rec)
	}
	raw[yellowstoneKeyOff] = keys
	sealSub(raw, 0, YellowstoneFrameLen)
	if pen != nil {
		copy(raw[PenOffset:], pen)
		sealSub(raw, PenOffset, YellowstoneFullLen)
	}
	return raw
}

func TestDecodeNothingHappened(t *testing.T) {
	for _, ic := range []regmap.ICType{regmap.Normandy, regmap.Yellowstone} {
		ev, err := DecodeFrame(make([]byte, FrameLen(ic)), ic)
		assert.Equal(t, nil, err)
		assert.Equal(t, EventInvalid, ev.Type)
		assert.Equal(t, 0, ev.TouchNum)
		assert.Equal(t, TouchEvent{}, ev)
	}
}

func TestDecodeNormandyTouch(t *testing.T) {
	raw := normandyFrame(StatusTouch|2, [][]byte{
		pointRec(2, 100, 200, 10, 50),
		pointRec(2, 1024, 2048, 12, 60),
	}, 0b0001)

	ev, err := DecodeFrame(raw, regmap.Normandy)
	assert.Equal(t, nil, err)
	assert.Equal(t, EventTouch, ev.Type)
	assert.Equal(t, 2, ev.TouchNum)
	assert.Equal(t, false, ev.Overflow)

	assert.Equal(t, Point{Status: PointTouch, X: 100, Y: 200, W: 10, P: 50}, ev.Points[0])
	assert.Equal(t, Point{Status: PointTouch, X: 1024, Y: 2048, W: 12, P: 60}, ev.Points[1])
	assert.Equal(t, Point{}, ev.Points[2])

	assert.Equal(t, PointTouch, ev.Keys[0].Status)
	assert.Equal(t, PointNone, ev.Keys[1].Status)
}

func TestDecodeRequestOnly(t *testing.T) {
	raw := normandyFrame(StatusRequest, nil, 0)

	ev, err := DecodeFrame(raw, regmap.Normandy)
	assert.Equal(t, nil, err)
	assert.Equal(t, EventRequest, ev.Type)
	assert.Equal(t, 0, ev.TouchNum)
}

func TestDecodeGestureHotknotFlags(t *testing.T) {
	raw := normandyFrame(StatusGesture|StatusHotknot, nil, 0)

	ev, err := DecodeFrame(raw, regmap.Normandy)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ev.Type.Has(EventGesture))
	assert.Equal(t, true, ev.Type.Has(EventHotknot))
	assert.Equal(t, false, ev.Type.Has(EventTouch))
}

// All-or-nothing: flipping a single payload byte of an otherwise valid
// frame must yield ErrChecksum and zero records.
func TestDecodeChecksumMismatch(t *testing.T) {
	raw := normandyFrame(StatusTouch|1, [][]byte{pointRec(2, 5, 6, 7, 8)}, 0)
	raw[3] ^= 0x01

	ev, err := DecodeFrame(raw, regmap.Normandy)
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Equal(t, TouchEvent{}, ev)
}

func TestDecodeCountClamped(t *testing.T) {
	// Raw count nibble of 15: clamp to 10, record the overflow, survive.
	raw := normandyFrame(StatusTouch|0x0f, nil, 0)

	ev, err := DecodeFrame(raw, regmap.Normandy)
	assert.Equal(t, nil, err)
	assert.Equal(t, MaxTouch, ev.TouchNum)
	assert.Equal(t, true, ev.Overflow)
}

func TestDecodeYellowstoneCountClamped(t *testing.T) {
	raw := yellowstoneFrame(StatusTouch, 0x1f, nil, 0, nil)

	ev, err := DecodeFrame(raw, regmap.Yellowstone)
	assert.Equal(t, nil, err)
	assert.Equal(t, MaxTouch, ev.TouchNum)
	assert.Equal(t, true, ev.Overflow)
}

func TestDecodeYellowstoneTouch(t *testing.T) {
	raw := yellowstoneFrame(StatusTouch, 1, [][]byte{pointRec(2, 333, 444, 5, 70)}, 0b1000, nil)

	ev, err := DecodeFrame(raw, regmap.Yellowstone)
	assert.Equal(t, nil, err)
	assert.Equal(t, EventTouch, ev.Type)
	assert.Equal(t, 1, ev.TouchNum)
	assert.Equal(t, Point{Status: PointTouch, X: 333, Y: 444, W: 5, P: 70}, ev.Points[0])
	assert.Equal(t, PointTouch, ev.Keys[3].Status)
}

func penRec(status byte, x, y, p uint16, tiltX, tiltY int8, keys byte) []byte {
	rec := make([]byte, PenBlockLen-2)
	rec[0] = status << 4
	binary.LittleEndian.PutUint16(rec[1:], x)
	binary.LittleEndian.PutUint16(rec[3:], y)
	binary.LittleEndian.PutUint16(rec[5:], p)
	rec[7] = byte(tiltX)
	rec[8] = byte(tiltY)
	rec[9] = keys
	return rec
}

func TestDecodeYellowstonePen(t *testing.T) {
	pen := penRec(2, 800, 900, 1000, -10, 15, 0b01)
	raw := yellowstoneFrame(StatusTouch, penPresentFlag, nil, 0, pen)

	ev, err := DecodeFrame(raw, regmap.Yellowstone)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ev.Type.Has(EventPen))
	assert.Equal(t, PointTouch, ev.Pen.Status)
	assert.Equal(t, ToolPen, ev.Pen.Tool)
	assert.Equal(t, uint16(800), ev.Pen.X)
	assert.Equal(t, uint16(900), ev.Pen.Y)
	assert.Equal(t, uint16(1000), ev.Pen.P)
	assert.Equal(t, int8(-10), ev.Pen.TiltX)
	assert.Equal(t, int8(15), ev.Pen.TiltY)
	assert.Equal(t, PointTouch, ev.Pen.Keys[0].Status)
	assert.Equal(t, PointNone, ev.Pen.Keys[1].Status)
}

func TestDecodePenPressureClamped(t *testing.T) {
	pen := penRec(2, 1, 2, 0xffff, 0, 0, 0)
	raw := yellowstoneFrame(StatusTouch, penPresentFlag, nil, 0, pen)

	ev, err := DecodeFrame(raw, regmap.Yellowstone)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(MaxPenPressure), ev.Pen.P)
}

// A corrupt pen block voids the whole event, touch records included.
func TestDecodePenChecksumMismatch(t *testing.T) {
	pen := penRec(2, 800, 900, 1000, 0, 0, 0)
	raw := yellowstoneFrame(StatusTouch, penPresentFlag|1,
		[][]byte{pointRec(2, 10, 20, 3, 4)}, 0, pen)
	raw[PenOffset+2] ^= 0x80

	ev, err := DecodeFrame(raw, regmap.Yellowstone)
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Equal(t, TouchEvent{}, ev)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := DecodeFrame([]byte{StatusTouch, 0x00}, regmap.Normandy)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = DecodeFrame(make([]byte, YellowstoneFrameLen-1), regmap.Yellowstone)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestDecodeUnknownVariant(t *testing.T) {
	_, err := DecodeFrame(make([]byte, NormandyFrameLen), regmap.ICType(42))
	assert.ErrorIs(t, err, regmap.ErrUnknownVariant)
}
