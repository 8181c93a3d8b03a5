package packets

import (
	"fmt"
	"io"
)

// UnsubscribePacket represents an MQTT UNSUBSCRIBE control packet.
type UnsubscribePacket struct {
	PacketID uint16
	Topics   []string

	// MQTT v5.0 fields
	Properties *Properties // v5.0
	Version    uint8       // 4 or 5
}

func (p *UnsubscribePacket) Type() uint8 { return UNSUBSCRIBE }

// WriteTo writes the UNSUBSCRIBE packet to the writer. Fixed header flags
// are reserved as 0x02 by the spec, same as SUBSCRIBE.
func (p *UnsubscribePacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(8 * (len(p.Topics) + 1))
	f.u16(p.PacketID)
	if p.Version >= 5 {
		f.props(p.Properties)
	}
	for _, topic := range p.Topics {
		f.str(topic)
	}
	return writePacket(w, UNSUBSCRIBE, 0x02, f.bytes())
}

// DecodeUnsubscribe decodes an UNSUBSCRIBE packet from the buffer.
func DecodeUnsubscribe(buf []byte, version uint8) (*UnsubscribePacket, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("buffer too short for UNSUBSCRIBE packet")
	}

	pkt := &UnsubscribePacket{Version: version}
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

	for c.remaining() > 0 {
		topic, err := c.str()
		if err != nil {
			return nil, fmt.Errorf("failed to decode topic filter: %w", err)
		}
		pkt.Topics = append(pkt.Topics, topic)
	}

	return pkt, nil
}
