// Package wire implements the matchmaking server's binary frame codec: a
// length-prefixed, little-endian, variable-length-integer wire format shared
// by the frame prefix and every integer field inside a message body.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Discriminant thresholds for the four-case varint scheme: a value small
// enough to fit in the discriminant byte itself is stored inline; larger
// values are flagged by a reserved discriminant and followed by a
// fixed-width little-endian tail.
const (
	varintInline  = 250
	varintU16Flag = 251
	varintU32Flag = 252
	varintU64Flag = 253
)

// putVarint appends v to dst using the four-case discriminant scheme:
// d<=250 is the value itself, 251/252/253 flag a u16/u32/u64 LE tail.
func putVarint(dst []byte, v uint64) []byte {
	switch {
	case v <= varintInline:
		return append(dst, byte(v))
	case v <= 0xFFFF:
		dst = append(dst, varintU16Flag)
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(v))
		return append(dst, tmp[:]...)
	case v <= 0xFFFFFFFF:
		dst = append(dst, varintU32Flag)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		return append(dst, tmp[:]...)
	default:
		dst = append(dst, varintU64Flag)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		return append(dst, tmp[:]...)
	}
}

// getVarint decodes a varint from the front of src, returning the value and
// the number of bytes consumed. It reports ErrShortRead if src does not yet
// hold a full encoding, or a FramingError for an invalid discriminant.
func getVarint(src []byte) (uint64, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrShortRead
	}

	d := src[0]
	switch {
	case d <= varintInline:
		return uint64(d), 1, nil
	case d == varintU16Flag:
		if len(src) < 3 {
			return 0, 0, ErrShortRead
		}
		return uint64(binary.LittleEndian.Uint16(src[1:3])), 3, nil
	case d == varintU32Flag:
		if len(src) < 5 {
			return 0, 0, ErrShortRead
		}
		return uint64(binary.LittleEndian.Uint32(src[1:5])), 5, nil
	case d == varintU64Flag:
		if len(src) < 9 {
			return 0, 0, ErrShortRead
		}
		return binary.LittleEndian.Uint64(src[1:9]), 9, nil
	default:
		return 0, 0, &FramingError{Reason: fmt.Sprintf("invalid varint discriminant %d", d)}
	}
}
