package packets

import "io"

// DisconnectPacket represents an MQTT DISCONNECT control packet.
type DisconnectPacket struct {
	ReasonCode uint8
	Properties *Properties
	Version    uint8
}

func (p *DisconnectPacket) Type() uint8 { return DISCONNECT }

// WriteTo writes the DISCONNECT packet to the writer. DISCONNECT has no
// packet identifier, so the variable header is just the optional
// reason-code/properties pair.
func (p *DisconnectPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(2)

	if p.Version >= 5 && (p.ReasonCode != 0 || p.Properties != nil) {
		f.u8(p.ReasonCode).props(p.Properties)
	}

	return writePacket(w, DISCONNECT, 0, f.bytes())
}

// DecodeDisconnect decodes a DISCONNECT packet.
func DecodeDisconnect(buf []byte, version uint8) (*DisconnectPacket, error) {
	pkt := &DisconnectPacket{Version: version}

	c := newCursor(buf)
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
