package packets

import (
	"fmt"
	"io"
)

// PublishPacket represents an MQTT PUBLISH control packet.
type PublishPacket struct {
	// Fixed header flags
	Dup    bool
	QoS    uint8
	Retain bool

	// Variable header
	Topic         string
	OriginalTopic string // Original topic if Topic is emptied for alias
	PacketID      uint16 // Only present if QoS > 0

	// Payload
	Payload []byte

	// MQTT v5.0 fields
	Properties *Properties
	Version    uint8 // 4 for v3.1.1, 5 for v5.0

	// UseAlias indicates whether to use topic alias for this publish.
	// This is set by WithAlias() and processed by the client.
	UseAlias bool
}

func (p *PublishPacket) Type() uint8 { return PUBLISH }

func (p *PublishPacket) flags() uint8 {
	var flags uint8
	if p.Dup {
		flags |= 0x08
	}
	flags |= (p.QoS & 0x03) << 1
	if p.Retain {
		flags |= 0x01
	}
	return flags
}

// WriteTo writes the PUBLISH packet to the writer. The packet identifier is
// only present when QoS > 0, and properties are only present for v5.0.
func (p *PublishPacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(topicFrameCapacity(p.Topic) + len(p.Payload))
	f.str(p.Topic)
	if p.QoS > 0 {
		f.u16(p.PacketID)
	}
	if p.Version >= 5 {
		f.props(p.Properties)
	}
	f.raw(p.Payload)
	return writePacket(w, PUBLISH, p.flags(), f.bytes())
}

func topicFrameCapacity(topic string) int {
	return 4 + len(topic)
}

// DecodePublish decodes a PUBLISH packet from the buffer and fixed header.
func DecodePublish(buf []byte, fixedHeader *FixedHeader, version uint8) (*PublishPacket, error) {
	pkt := &PublishPacket{Version: version}

	pkt.Dup = (fixedHeader.Flags & 0x08) != 0
	pkt.QoS = (fixedHeader.Flags >> 1) & 0x03
	pkt.Retain = (fixedHeader.Flags & 0x01) != 0

	c := newCursor(buf)

	topic, err := c.str()
	if err != nil {
		return nil, fmt.Errorf("failed to decode topic: %w", err)
	}
	pkt.Topic = topic

	if pkt.QoS > 0 {
		packetID, err := c.u16()
		if err != nil {
			return nil, fmt.Errorf("buffer too short for packet ID: %w", err)
		}
		pkt.PacketID = packetID
	}

	if version >= 5 {
		props, err := c.properties()
		if err != nil {
			return nil, fmt.Errorf("failed to decode properties: %w", err)
		}
		pkt.Properties = props
	}

	pkt.Payload = append([]byte(nil), c.left()...)

	return pkt, nil
}
