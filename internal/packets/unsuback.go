package packets

import (
	"fmt"
	"io"
)

// UnsubackPacket represents an MQTT UNSUBACK control packet.
type UnsubackPacket struct {
	PacketID uint16

	// MQTT v5.0 fields
	ReasonCodes []uint8     // v5.0
	Properties  *Properties // v5.0
	Version     uint8       // 4 or 5
}

func (p *UnsubackPacket) Type() uint8 { return UNSUBACK }

// WriteTo writes the UNSUBACK packet to the writer. v3.1.1 has no payload
// at all; v5.0 adds properties and a reason code per unsubscribed topic.
func (p *UnsubackPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(4 + len(p.ReasonCodes))
	f.u16(p.PacketID)
	if p.Version >= 5 {
		f.props(p.Properties).raw(p.ReasonCodes)
	}
	return writePacket(w, UNSUBACK, 0, f.bytes())
}

// DecodeUnsuback decodes an UNSUBACK packet from the buffer.
func DecodeUnsuback(buf []byte, version uint8) (*UnsubackPacket, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("buffer too short for UNSUBACK packet")
	}

	pkt := &UnsubackPacket{Version: version}
	c := newCursor(buf)

	packetID, err := c.u16()
	if err != nil {
		return nil, err
	}
	pkt.PacketID = packetID

	if version >= 5 {
		props, err := c.properties()
		if err != nil {
			return nil, fmt.Errorf("failed to decode properties: %w", err)
		}
		pkt.Properties = props
	}

	if c.remaining() > 0 {
		pkt.ReasonCodes = append([]uint8(nil), c.left()...)
	}

	return pkt, nil
}
