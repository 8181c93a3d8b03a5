package packets

import "io"

// PubackPacket represents an MQTT PUBACK control packet (QoS 1 acknowledgment).
type PubackPacket struct {
	PacketID   uint16
	ReasonCode uint8
	Properties *Properties
	Version    uint8
}

func (p *PubackPacket) Type() uint8 { return PUBACK }

// WriteTo writes the PUBACK packet to the writer.
func (p *PubackPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(4)
	f.u16(p.PacketID)

	if p.Version >= 5 && (p.ReasonCode != 0 || p.Properties != nil) {
		f.u8(p.ReasonCode).props(p.Properties)
	}

	return writePacket(w, PUBACK, 0, f.bytes())
}

// DecodePuback decodes a PUBACK packet from the buffer.
func DecodePuback(buf []byte, version uint8) (*PubackPacket, error) {
	c := newCursor(buf)

	packetID, err := c.u16()
	if err != nil {
		return nil, err
	}

	pkt := &PubackPacket{Version: version, PacketID: packetID}

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
