package packets

import (
	"fmt"
	"io"
)

// maxPacketSize is the largest remaining-length value the variable byte
// integer encoding can represent: 256MB minus one byte.
const maxPacketSize = 268435455

// PacketDecoder decodes a packet body given the already-parsed fixed
// header and the negotiated protocol version (4 for v3.1.1, 5 for v5.0).
type PacketDecoder func(remaining []byte, header *FixedHeader, version uint8) (Packet, error)

var packetDecoders = map[uint8]PacketDecoder{
	CONNECT:     func(b []byte, _ *FixedHeader, _ uint8) (Packet, error) { return DecodeConnect(b) },
	CONNACK:     func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeConnack(b, v) },
	PUBLISH:     func(b []byte, h *FixedHeader, v uint8) (Packet, error) { return DecodePublish(b, h, v) },
	PUBACK:      func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePuback(b, v) },
	PUBREC:      func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePubrec(b, v) },
	PUBREL:      func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePubrel(b, v) },
	PUBCOMP:     func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePubcomp(b, v) },
	SUBSCRIBE:   func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeSubscribe(b, v) },
	SUBACK:      func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeSuback(b, v) },
	UNSUBSCRIBE: func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeUnsubscribe(b, v) },
	UNSUBACK:    func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeUnsuback(b, v) },
	PINGREQ:     func(b []byte, _ *FixedHeader, _ uint8) (Packet, error) { return DecodePingreq(b) },
	PINGRESP:    func(b []byte, _ *FixedHeader, _ uint8) (Packet, error) { return DecodePingresp(b) },
	DISCONNECT:  func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeDisconnect(b, v) },
	AUTH:        func(b []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeAuth(b, v) },
}

// ReadPacket reads one complete MQTT packet from r. maxIncomingPacket caps
// the accepted remaining length; 0 (or a value above the spec's own
// 268435455-byte ceiling) falls back to that ceiling.
func ReadPacket(r io.Reader, version uint8, maxIncomingPacket int) (Packet, error) {
	header, err := DecodeFixedHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fixed header: %w", err)
	}

	limit := maxIncomingPacket
	if limit <= 0 || limit > maxPacketSize {
		limit = maxPacketSize
	}
	if header.RemainingLength > limit {
		return nil, fmt.Errorf("packet size %d exceeds maximum %d", header.RemainingLength, limit)
	}

	decoder, ok := packetDecoders[header.PacketType]
	if !ok {
		return nil, fmt.Errorf("unknown packet type: %d", header.PacketType)
	}

	if header.RemainingLength == 0 {
		return decoder(nil, header, version)
	}

	bufPtr := GetBuffer(header.RemainingLength)
	defer PutBuffer(bufPtr)

	remaining := (*bufPtr)[:header.RemainingLength]
	if _, err := io.ReadFull(r, remaining); err != nil {
		return nil, fmt.Errorf("failed to read packet body: %w", err)
	}

	return decoder(remaining, header, version)
}
