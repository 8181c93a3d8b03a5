package packets

import (
	"fmt"
	"io"
)

// FixedHeader is the 2-to-5-byte header present on every MQTT control
// packet: packet type and flags packed into one byte, followed by the
// remaining length encoded as a variable byte integer.
type FixedHeader struct {
	PacketType      uint8
	Flags           uint8
	RemainingLength int
}

// varIntDigits encodes value as MQTT variable-byte-integer digits into a
// stack array, returning the digits and how many are used. Shared by the
// io.ByteWriter fast path and the plain io.Writer fallback below so the
// digit arithmetic lives in exactly one place.
func varIntDigits(value int) ([4]byte, int) {
	var digits [4]byte
	n := 0
	for {
		digits[n] = byte(value % 128)
		value /= 128
		if value > 0 {
			digits[n] |= 0x80
		}
		n++
		if value == 0 {
			return digits, n
		}
	}
}

// WriteTo writes the fixed header to w. When w also implements
// io.ByteWriter, each byte is written individually to avoid building an
// intermediate slice.
func (h *FixedHeader) WriteTo(w io.Writer) (int64, error) {
	firstByte := (h.PacketType << 4) | (h.Flags & 0x0F)
	digits, n := varIntDigits(h.RemainingLength)

	if bw, ok := w.(io.ByteWriter); ok {
		var written int64
		if err := bw.WriteByte(firstByte); err != nil {
			return written, err
		}
		written++
		for i := 0; i < n; i++ {
			if err := bw.WriteByte(digits[i]); err != nil {
				return written, err
			}
			written++
		}
		return written, nil
	}

	var buf [5]byte
	buf[0] = firstByte
	copy(buf[1:], digits[:n])

	nw, err := w.Write(buf[:1+n])
	return int64(nw), err
}

// DecodeFixedHeader reads and decodes a fixed header from r.
func DecodeFixedHeader(r io.Reader) (*FixedHeader, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}

	remainingLength, err := decodeVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode remaining length: %w", err)
	}

	return &FixedHeader{
		PacketType:      buf[0] >> 4,
		Flags:           buf[0] & 0x0F,
		RemainingLength: remainingLength,
	}, nil
}
