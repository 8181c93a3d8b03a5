package packets

import "io"

// PubrelPacket represents an MQTT PUBREL control packet (QoS 2, step 2).
type PubrelPacket struct {
	PacketID   uint16
	ReasonCode uint8
	Properties *Properties
	Version    uint8
}

func (p *PubrelPacket) Type() uint8 { return PUBREL }

// pubrelFlags is fixed at 0x02 by the spec, unlike the other ack packets.
const pubrelFlags = 0x02

// WriteTo writes the PUBREL packet to the writer.
func (p *PubrelPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(4)
	f.u16(p.PacketID)

	if p.Version >= 5 && (p.ReasonCode != 0 || p.Properties != nil) {
		f.u8(p.ReasonCode).props(p.Properties)
	}

	return writePacket(w, PUBREL, pubrelFlags, f.bytes())
}

// DecodePubrel decodes a PUBREL packet from the buffer.
func DecodePubrel(buf []byte, version uint8) (*PubrelPacket, error) {
	c := newCursor(buf)

	packetID, err := c.u16()
	if err != nil {
		return nil, err
	}

	pkt := &PubrelPacket{Version: version, PacketID: packetID}

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
