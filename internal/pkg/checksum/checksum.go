// Package checksum implements the checksum variants used by the touch
// controller wire protocol. A frame, command packet or config blob carries
// a trailing checksum in one of six formats: u8, subtractive u8 (16-bit
// result), le16, be16, le32 or be32.
//
// NOTE: the caller is responsible for the legality of the buffer passed in.
// None of these functions validate that the length is a multiple of the
// word size; short or odd-sized buffers are a caller bug.
package checksum

import "encoding/binary"

// Sum8 returns the 8-bit wraparound sum of every byte in data.
func Sum8(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum
}

// Sum8Sub16 sums all bytes except the last two and subtracts the big-endian
// 16-bit value formed by them, wrapping at 16 bits. A buffer whose trailer
// equals the sum of its payload yields 0. The subtraction may go "negative"
// before wrapping; two's-complement 16-bit wrap is fixed wire behaviour and
// must not be reinterpreted.
func Sum8Sub16(data []byte) uint16 {
	var sum uint16
	for _, b := range data[:len(data)-2] {
		sum += uint16(b)
	}
	return sum - binary.BigEndian.Uint16(data[len(data)-2:])
}

// Sum16LE returns the 16-bit wraparound sum of little-endian 16-bit words.
func Sum16LE(data []byte) uint16 {
	var sum uint16
	for i := 0; i < len(data); i += 2 {
		sum += binary.LittleEndian.Uint16(data[i:])
	}
	return sum
}

// Sum16BE returns the 16-bit wraparound sum of big-endian 16-bit words.
func Sum16BE(data []byte) uint16 {
	var sum uint16
	for i := 0; i < len(data); i += 2 {
		sum += binary.BigEndian.Uint16(data[i:])
	}
	return sum
}

// Sum32LE returns the 32-bit wraparound sum of little-endian 32-bit words.
func Sum32LE(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		sum += binary.LittleEndian.Uint32(data[i:])
	}
	return sum
}

// Sum32BE returns the 32-bit wraparound sum of big-endian 32-bit words.
func Sum32BE(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		sum += binary.BigEndian.Uint32(data[i:])
	}
	return sum
}
