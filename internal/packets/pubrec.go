package packets

import "io"

// PubrecPacket represents an MQTT PUBREC control packet (QoS 2, step 1).
type PubrecPacket struct {
	PacketID   uint16
	ReasonCode uint8
	Properties *Properties
	Version    uint8
}

func (p *PubrecPacket) Type() uint8 { return PUBREC }

// WriteTo writes the PUBREC packet to the writer. The reason code and
// properties are omitted entirely when there is nothing to say beyond
// "success, no properties" — the MQTT v5.0 shortened-packet allowance.
func (p *PubrecPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(4)
	f.u16(p.PacketID)

	if p.Version >= 5 && (p.ReasonCode != 0 || p.Properties != nil) {
		f.u8(p.ReasonCode).props(p.Properties)
	}

	return writePacket(w, PUBREC, 0, f.bytes())
}

// DecodePubrec decodes a PUBREC packet from the buffer.
func DecodePubrec(buf []byte, version uint8) (*PubrecPacket, error) {
	c := newCursor(buf)

	packetID, err := c.u16()
	if err != nil {
		return nil, err
	}

	pkt := &PubrecPacket{Version: version, PacketID: packetID}

	if version >= 5 && c.remaining() > 0 {
		reasonCode, err := c.u8()
		if err != nil {
			return nil, err
		}
		pkt.ReasonCode = reasonCode

		if c.remaining() > 0 {
			props, err := c.properties()
			if err != nil {
				return nil, err
			}
			pkt.Properties = props
		}
	}

	return pkt, nil
}
