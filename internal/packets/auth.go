package packets

import (
	"fmt"
	"io"
)

// AuthPacket represents an MQTT v5.0 AUTH control packet, used to carry
// challenge/response rounds for extended authentication mechanisms (SCRAM,
// OAuth, Kerberos, ...) between CONNECT and the final CONNACK.
type AuthPacket struct {
	ReasonCode uint8
	Properties *Properties
	Version    uint8
}

// AUTH reason codes
const (
	AuthReasonSuccess        uint8 = 0x00
	AuthReasonContinue       uint8 = 0x18
	AuthReasonReauthenticate uint8 = 0x19
)

func (p *AuthPacket) Type() uint8 { return AUTH }

// WriteTo writes the AUTH packet to the writer. Unlike the ack packets,
// AUTH always carries a reason code and properties section — there is no
// short form.
func (p *AuthPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(8)
	f.u8(p.ReasonCode).props(p.Properties)
	return writePacket(w, AUTH, 0, f.bytes())
}

// DecodeAuth decodes an AUTH packet from the buffer.
func DecodeAuth(buf []byte, version uint8) (*AuthPacket, error) {
	if version < 5 {
		return nil, fmt.Errorf("AUTH packet is only valid for MQTT v5.0")
	}

	c := newCursor(buf)
	reasonCode, err := c.u8()
	if err != nil {
		return nil, fmt.Errorf("buffer too short for AUTH packet: %w", err)
	}

	pkt := &AuthPacket{Version: version, ReasonCode: reasonCode}

	if c.remaining() > 0 {
		props, err := c.properties()
		if err != nil {
			return nil, err
		}
		pkt.Properties = props
	}

	return pkt, nil
}
