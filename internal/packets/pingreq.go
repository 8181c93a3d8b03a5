package packets

import "io"

// PingreqPacket represents an MQTT PINGREQ control packet.
type PingreqPacket struct{}

func (p *PingreqPacket) Type() uint8 { return PINGREQ }

// WriteTo writes the PINGREQ packet to the writer. It has no variable header
// or payload, so the body is empty.
func (p *PingreqPacket) WriteTo(w io.Writer) (int64, error) {
	return writePacket(w, PINGREQ, 0, nil)
}

// DecodePingreq decodes a PINGREQ packet (no payload).
func DecodePingreq(buf []byte) (*PingreqPacket, error) {
	return &PingreqPacket{}, nil
}
