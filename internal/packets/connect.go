package packets

import (
	"fmt"
	"io"
)

// ConnectPacket represents an MQTT CONNECT control packet.
type ConnectPacket struct {
	// Protocol name (should be "MQTT" for v3.1.1)
	ProtocolName string

	// Protocol level (4 for v3.1.1, 5 for v5.0)
	ProtocolLevel uint8

	// Connect flags
	CleanSession bool
	WillFlag     bool
	WillQoS      uint8
	WillRetain   bool
	PasswordFlag bool
	UsernameFlag bool

	// Keep alive timer in seconds
	KeepAlive uint16

	// Payload
	ClientID string

	// Will fields (only used if WillFlag is true)
	WillTopic      string
	WillMessage    []byte
	WillProperties *Properties // MQTT v5.0

	// Credentials (only used if respective flags are true)
	Username string
	Password string

	// MQTT v5.0 fields
	Properties *Properties
}

func (p *ConnectPacket) Type() uint8 { return CONNECT }

func (p *ConnectPacket) connectFlags() uint8 {
	var flags uint8
	if p.CleanSession {
		flags |= 0x02
	}
	if p.WillFlag {
		flags |= 0x04
		flags |= (p.WillQoS & 0x03) << 3
		if p.WillRetain {
			flags |= 0x20
		}
	}
	if p.PasswordFlag {
		flags |= 0x40
	}
	if p.UsernameFlag {
		flags |= 0x80
	}
	return flags
}

// WriteTo writes the CONNECT packet to the writer. The variable header is
// protocol name, level, connect flags, keep-alive and (v5.0 only)
// properties; the payload is client ID, will, username and password, each
// gated by its own flag bit.
func (p *ConnectPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(64 + len(p.ClientID) + len(p.WillTopic) + len(p.WillMessage))

	f.str(p.ProtocolName).u8(p.ProtocolLevel).u8(p.connectFlags()).u16(p.KeepAlive)
	if p.ProtocolLevel >= 5 {
		f.props(p.Properties)
	}

	f.str(p.ClientID)
	if p.WillFlag {
		if p.ProtocolLevel >= 5 {
			f.props(p.WillProperties)
		}
		f.str(p.WillTopic).bin(p.WillMessage)
	}
	if p.UsernameFlag {
		f.str(p.Username)
	}
	if p.PasswordFlag {
		f.str(p.Password)
	}

	return writePacket(w, CONNECT, 0, f.bytes())
}

// DecodeConnect decodes a CONNECT packet from the buffer.
func DecodeConnect(buf []byte) (*ConnectPacket, error) {
	if len(buf) < 10 {
		return nil, fmt.Errorf("buffer too short for CONNECT packet")
	}

	pkt := &ConnectPacket{}
	c := newCursor(buf)

	protocolName, err := c.str()
	if err != nil {
		return nil, fmt.Errorf("failed to decode protocol name: %w", err)
	}
	pkt.ProtocolName = protocolName

	level, err := c.u8()
	if err != nil {
		return nil, fmt.Errorf("buffer too short for protocol level: %w", err)
	}
	pkt.ProtocolLevel = level

	flags, err := c.u8()
	if err != nil {
		return nil, fmt.Errorf("buffer too short for connect flags: %w", err)
	}
	pkt.CleanSession = (flags & 0x02) != 0
	pkt.WillFlag = (flags & 0x04) != 0
	pkt.WillQoS = (flags >> 3) & 0x03
	pkt.WillRetain = (flags & 0x20) != 0
	pkt.PasswordFlag = (flags & 0x40) != 0
	pkt.UsernameFlag = (flags & 0x80) != 0

	keepAlive, err := c.u16()
	if err != nil {
		return nil, fmt.Errorf("buffer too short for keep alive: %w", err)
	}
	pkt.KeepAlive = keepAlive

	if pkt.ProtocolLevel >= 5 {
		props, err := c.properties()
		if err != nil {
			return nil, fmt.Errorf("failed to decode properties: %w", err)
		}
		pkt.Properties = props
	}

	clientID, err := c.str()
	if err != nil {
		return nil, fmt.Errorf("failed to decode client ID: %w", err)
	}
	pkt.ClientID = clientID

	if pkt.WillFlag {
		if pkt.ProtocolLevel >= 5 {
			props, err := c.properties()
			if err != nil {
				return nil, fmt.Errorf("failed to decode will properties: %w", err)
			}
			pkt.WillProperties = props
		}

		willTopic, err := c.str()
		if err != nil {
			return nil, fmt.Errorf("failed to decode will topic: %w", err)
		}
		pkt.WillTopic = willTopic

		willMessage, err := c.bin()
		if err != nil {
			return nil, fmt.Errorf("failed to decode will message: %w", err)
		}
		pkt.WillMessage = append([]byte(nil), willMessage...)
	}

	if pkt.UsernameFlag {
		username, err := c.str()
		if err != nil {
			return nil, fmt.Errorf("failed to decode username: %w", err)
		}
		pkt.Username = username
	}

	if pkt.PasswordFlag {
		password, err := c.str()
		if err != nil {
			return nil, fmt.Errorf("failed to decode password: %w", err)
		}
		pkt.Password = password
	}

	return pkt, nil
}
