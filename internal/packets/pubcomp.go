package packets

import "io"

// PubcompPacket represents an MQTT PUBCOMP control packet (QoS 2, step 3).
type PubcompPacket struct {
	PacketID   uint16
	ReasonCode uint8
	Properties *Properties
	Version    uint8
}

func (p *PubcompPacket) Type() uint8 { return PUBCOMP }

// WriteTo writes the PUBCOMP packet to the writer.
func (p *PubcompPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(4)
	f.u16(p.PacketID)

	if p.Version >= 5 && (p.ReasonCode != 0 || p.Properties != nil) {
		f.u8(p.ReasonCode).props(p.Properties)
	}

	return writePacket(w, PUBCOMP, 0, f.bytes())
}

// DecodePubcomp decodes a PUBCOMP packet from the buffer.
func DecodePubcomp(buf []byte, version uint8) (*PubcompPacket, error) {
	c := newCursor(buf)

	packetID, err := c.u16()
	if err != nil {
		return nil, err
	}

	pkt := &PubcompPacket{Version: version, PacketID: packetID}

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
