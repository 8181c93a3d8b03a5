package packets

import (
	"fmt"
	"io"
)

// SubscribePacket represents an MQTT SUBSCRIBE control packet.
type SubscribePacket struct {
	PacketID uint16
	Topics   []string
	QoS      []uint8 // QoS level for each topic

	// MQTT v5.0 Subscription Options
	// These slices must match the length of Topics/QoS if provided.
	// If nil/empty, defaults (false/0) are used.
	NoLocal           []bool
	RetainAsPublished []bool
	RetainHandling    []uint8 // 0=Send, 1=SendIfNew, 2=DoNotSend

	// MQTT v5.0 fields
	Properties *Properties // v5.0
	Version    uint8       // 4 or 5
}

func (p *SubscribePacket) Type() uint8 { return SUBSCRIBE }

// subscriptionOptions builds the options byte for the i-th topic filter:
// QoS in bits 0-1, and for v5.0 No Local (bit 2), Retain As Published
// (bit 3) and Retain Handling (bits 4-5).
func (p *SubscribePacket) subscriptionOptions(i int) byte {
	qos := uint8(QoS0)
	if i < len(p.QoS) {
		qos = p.QoS[i]
	}
	opts := qos & 0x03

	if p.Version >= 5 {
		if i < len(p.NoLocal) && p.NoLocal[i] {
			opts |= 1 << 2
		}
		if i < len(p.RetainAsPublished) && p.RetainAsPublished[i] {
			opts |= 1 << 3
		}
		if i < len(p.RetainHandling) {
			opts |= (p.RetainHandling[i] & 0x03) << 4
		}
	}
	return opts
}

// WriteTo writes the SUBSCRIBE packet to the writer. SUBSCRIBE's fixed
// header flags are reserved as 0x02 by the spec.
func (p *SubscribePacket) WriteTo(w io.Writer) (int64, error) {
	f := newFrame(8 * (len(p.Topics) + 1))
	f.u16(p.PacketID)
	if p.Version >= 5 {
		f.props(p.Properties)
	}
	for i, topic := range p.Topics {
		f.str(topic).u8(p.subscriptionOptions(i))
	}
	return writePacket(w, SUBSCRIBE, 0x02, f.bytes())
}

// DecodeSubscribe decodes a SUBSCRIBE packet from the buffer.
func DecodeSubscribe(buf []byte, version uint8) (*SubscribePacket, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("buffer too short for SUBSCRIBE packet")
	}

	pkt := &SubscribePacket{Version: version}
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

		opts, err := c.u8()
		if err != nil {
			return nil, fmt.Errorf("buffer too short for options byte: %w", err)
		}

		pkt.Topics = append(pkt.Topics, topic)
		pkt.QoS = append(pkt.QoS, opts&0x03)

		if version >= 5 {
			pkt.NoLocal = append(pkt.NoLocal, opts&(1<<2) != 0)
			pkt.RetainAsPublished = append(pkt.RetainAsPublished, opts&(1<<3) != 0)
			pkt.RetainHandling = append(pkt.RetainHandling, (opts>>4)&0x03)
		}
	}

	return pkt, nil
}
