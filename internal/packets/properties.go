package packets

import "fmt"

// Property IDs defined in the MQTT v5.0 spec.
const (
	PropPayloadFormatIndicator          uint8 = 0x01
	PropMessageExpiryInterval           uint8 = 0x02
	PropContentType                     uint8 = 0x03
	PropResponseTopic                   uint8 = 0x08
	PropCorrelationData                 uint8 = 0x09
	PropSubscriptionIdentifier          uint8 = 0x0B
	PropSessionExpiryInterval           uint8 = 0x11
	PropAssignedClientIdentifier        uint8 = 0x12
	PropServerKeepAlive                 uint8 = 0x13
	PropAuthenticationMethod            uint8 = 0x15
	PropAuthenticationData              uint8 = 0x16
	PropRequestProblemInformation       uint8 = 0x17
	PropWillDelayInterval               uint8 = 0x18
	PropRequestResponseInformation      uint8 = 0x19
	PropResponseInformation             uint8 = 0x1A
	PropServerReference                 uint8 = 0x1C
	PropReasonString                    uint8 = 0x1F
	PropReceiveMaximum                  uint8 = 0x21
	PropTopicAliasMaximum                uint8 = 0x22
	PropTopicAlias                       uint8 = 0x23
	PropMaximumQoS                       uint8 = 0x24
	PropRetainAvailable                  uint8 = 0x25
	PropUserProperty                     uint8 = 0x26
	PropMaximumPacketSize                uint8 = 0x27
	PropWildcardSubscriptionAvailable    uint8 = 0x28
	PropSubscriptionIdentifierAvailable  uint8 = 0x29
	PropSharedSubscriptionAvailable      uint8 = 0x2A
)

// Presence bits track which optional scalar/string fields of Properties were
// actually present on the wire, distinguishing "absent" from "present with
// the zero value" without boxing every field in a pointer.
const (
	PresPayloadFormatIndicator uint32 = 1 << iota
	PresMessageExpiryInterval
	PresContentType
	PresResponseTopic
	PresSessionExpiryInterval
	PresAssignedClientIdentifier
	PresServerKeepAlive
	PresAuthenticationMethod
	PresRequestProblemInformation
	PresWillDelayInterval
	PresRequestResponseInformation
	PresResponseInformation
	PresServerReference
	PresReasonString
	PresReceiveMaximum
	PresTopicAliasMaximum
	PresTopicAlias
	PresMaximumQoS
	PresRetainAvailable
	PresMaximumPacketSize
	PresWildcardSubscriptionAvailable
	PresSubscriptionIdentifierAvailable
	PresSharedSubscriptionAvailable
)

// Property is a single decoded MQTT property, used by callers that want to
// walk the raw set rather than the typed Properties struct.
type Property struct {
	ID    uint8
	Value any
}

// UserProperty is a free-form name/value pair; MQTT v5.0 allows any number
// of these per packet, including repeated keys.
type UserProperty struct {
	Key   string
	Value string
}

// Properties holds every property an MQTT v5.0 packet can carry. Presence
// is tracked in a bitmask rather than pointers so decoding a packet with
// few properties costs one allocation, not one per field.
type Properties struct {
	Presence                        uint32
	PayloadFormatIndicator          uint8
	MessageExpiryInterval           uint32
	ContentType                     string
	ResponseTopic                   string
	CorrelationData                 []byte
	SubscriptionIdentifier          []int
	SessionExpiryInterval           uint32
	AssignedClientIdentifier        string
	ServerKeepAlive                 uint16
	AuthenticationMethod            string
	AuthenticationData              []byte
	RequestProblemInformation       uint8
	WillDelayInterval                uint32
	RequestResponseInformation      uint8
	ResponseInformation             string
	ServerReference                 string
	ReasonString                    string
	ReceiveMaximum                  uint16
	TopicAliasMaximum               uint16
	TopicAlias                      uint16
	MaximumQoS                      uint8
	RetainAvailable                 bool
	UserProperties                  []UserProperty
	MaximumPacketSize               uint32
	WildcardSubscriptionAvailable   bool
	SubscriptionIdentifierAvailable bool
	SharedSubscriptionAvailable     bool
}

func (p *Properties) has(bit uint32) bool { return p.Presence&bit != 0 }

// encodeProperties serializes p as a standalone "Properties" section
// (length prefix + body), mainly for use outside a frame-based WriteTo.
func encodeProperties(p *Properties) []byte {
	if p == nil {
		return []byte{0x00}
	}
	return appendProperties(make([]byte, 0, 64), p)
}

// appendProperties appends the length-prefixed properties section to dst.
// It walks the property IDs in ascending numeric order, matching the order
// the MQTT spec lists them in, rather than grouping by Go field type.
func appendProperties(dst []byte, p *Properties) []byte {
	if p == nil {
		return append(dst, 0x00)
	}

	lenOffset := len(dst)
	dst = append(dst, 0) // placeholder, patched below
	bodyStart := len(dst)

	f := frame{b: dst}
	p.appendTo(&f)
	dst = f.b

	bodyLen := len(dst) - bodyStart
	if bodyLen < 128 {
		dst[lenOffset] = byte(bodyLen)
		return dst
	}

	lenBytes := encodeVarInt(bodyLen)
	extra := len(lenBytes) - 1
	dst = append(dst, make([]byte, extra)...)
	copy(dst[bodyStart+extra:], dst[bodyStart:bodyStart+bodyLen])
	copy(dst[lenOffset:], lenBytes)
	return dst
}

// appendTo writes every present property, in ascending property-ID order,
// onto f. One dispatch point covers scalars, strings, binary data and the
// repeatable special cases (user properties, subscription identifiers)
// instead of separate numeric/bool/string/special passes over the struct.
func (p *Properties) appendTo(f *frame) {
	if p.has(PresPayloadFormatIndicator) {
		f.u8(PropPayloadFormatIndicator).u8(p.PayloadFormatIndicator)
	}
	if p.has(PresMessageExpiryInterval) {
		f.u8(PropMessageExpiryInterval).u32(p.MessageExpiryInterval)
	}
	if p.has(PresContentType) {
		f.u8(PropContentType).str(p.ContentType)
	}
	if p.has(PresResponseTopic) {
		f.u8(PropResponseTopic).str(p.ResponseTopic)
	}
	if len(p.CorrelationData) > 0 {
		f.u8(PropCorrelationData).bin(p.CorrelationData)
	}
	for _, id := range p.SubscriptionIdentifier {
		f.u8(PropSubscriptionIdentifier).varint(id)
	}
	if p.has(PresSessionExpiryInterval) {
		f.u8(PropSessionExpiryInterval).u32(p.SessionExpiryInterval)
	}
	if p.has(PresAssignedClientIdentifier) {
		f.u8(PropAssignedClientIdentifier).str(p.AssignedClientIdentifier)
	}
	if p.has(PresServerKeepAlive) {
		f.u8(PropServerKeepAlive).u16(p.ServerKeepAlive)
	}
	if p.has(PresAuthenticationMethod) {
		f.u8(PropAuthenticationMethod).str(p.AuthenticationMethod)
	}
	if len(p.AuthenticationData) > 0 {
		f.u8(PropAuthenticationData).bin(p.AuthenticationData)
	}
	if p.has(PresRequestProblemInformation) {
		f.u8(PropRequestProblemInformation).u8(p.RequestProblemInformation)
	}
	if p.has(PresWillDelayInterval) {
		f.u8(PropWillDelayInterval).u32(p.WillDelayInterval)
	}
	if p.has(PresRequestResponseInformation) {
		f.u8(PropRequestResponseInformation).u8(p.RequestResponseInformation)
	}
	if p.has(PresResponseInformation) {
		f.u8(PropResponseInformation).str(p.ResponseInformation)
	}
	if p.has(PresServerReference) {
		f.u8(PropServerReference).str(p.ServerReference)
	}
	if p.has(PresReasonString) {
		f.u8(PropReasonString).str(p.ReasonString)
	}
	if p.has(PresReceiveMaximum) {
		f.u8(PropReceiveMaximum).u16(p.ReceiveMaximum)
	}
	if p.has(PresTopicAliasMaximum) {
		f.u8(PropTopicAliasMaximum).u16(p.TopicAliasMaximum)
	}
	if p.has(PresTopicAlias) {
		f.u8(PropTopicAlias).u16(p.TopicAlias)
	}
	if p.has(PresMaximumQoS) {
		f.u8(PropMaximumQoS).u8(p.MaximumQoS)
	}
	if p.has(PresRetainAvailable) {
		f.u8(PropRetainAvailable).u8(boolByte(p.RetainAvailable))
	}
	for _, up := range p.UserProperties {
		f.u8(PropUserProperty).str(up.Key).str(up.Value)
	}
	if p.has(PresMaximumPacketSize) {
		f.u8(PropMaximumPacketSize).u32(p.MaximumPacketSize)
	}
	if p.has(PresWildcardSubscriptionAvailable) {
		f.u8(PropWildcardSubscriptionAvailable).u8(boolByte(p.WildcardSubscriptionAvailable))
	}
	if p.has(PresSubscriptionIdentifierAvailable) {
		f.u8(PropSubscriptionIdentifierAvailable).u8(boolByte(p.SubscriptionIdentifierAvailable))
	}
	if p.has(PresSharedSubscriptionAvailable) {
		f.u8(PropSharedSubscriptionAvailable).u8(boolByte(p.SharedSubscriptionAvailable))
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// decodeProperties reads a length-prefixed properties section from buf,
// returning the decoded set and the total bytes consumed (length prefix
// included).
func decodeProperties(buf []byte) (*Properties, int, error) {
	if len(buf) == 0 {
		return nil, 0, fmt.Errorf("buffer too short for properties length")
	}

	bodyLen, n, err := decodeVarIntBuf(buf)
	if err != nil {
		return nil, 0, err
	}
	total := n + bodyLen
	if len(buf) < total {
		return nil, 0, fmt.Errorf("buffer too short for properties data")
	}
	if bodyLen == 0 {
		return nil, total, nil
	}

	p := &Properties{}
	c := newCursor(buf[n:total])
	for c.remaining() > 0 {
		id, err := c.u8()
		if err != nil {
			return nil, 0, err
		}
		if err := p.decodeOne(id, c); err != nil {
			return nil, 0, err
		}
	}
	return p, total, nil
}

// decodeOne reads the value for a single property ID from c, in whatever
// shape that ID's value takes (fixed-width scalar, string, binary, or a
// repeatable pair). One switch covers every property instead of probing
// through separate numeric/bool/string/special decoders per ID.
func (p *Properties) decodeOne(id uint8, c *cursor) error {
	switch id {
	case PropPayloadFormatIndicator:
		v, err := c.u8()
		p.PayloadFormatIndicator, p.Presence = v, p.Presence|PresPayloadFormatIndicator
		return wrapMalformed(id, err)
	case PropMessageExpiryInterval:
		v, err := c.u32()
		p.MessageExpiryInterval, p.Presence = v, p.Presence|PresMessageExpiryInterval
		return wrapMalformed(id, err)
	case PropContentType:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.ContentType, p.Presence = v, p.Presence|PresContentType
	case PropResponseTopic:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.ResponseTopic, p.Presence = v, p.Presence|PresResponseTopic
	case PropCorrelationData:
		v, err := c.bin()
		if err != nil {
			return err
		}
		p.CorrelationData = v
	case PropSubscriptionIdentifier:
		v, err := c.varint()
		if err != nil {
			return err
		}
		p.SubscriptionIdentifier = append(p.SubscriptionIdentifier, v)
	case PropSessionExpiryInterval:
		v, err := c.u32()
		p.SessionExpiryInterval, p.Presence = v, p.Presence|PresSessionExpiryInterval
		return wrapMalformed(id, err)
	case PropAssignedClientIdentifier:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.AssignedClientIdentifier, p.Presence = v, p.Presence|PresAssignedClientIdentifier
	case PropServerKeepAlive:
		v, err := c.u16()
		p.ServerKeepAlive, p.Presence = v, p.Presence|PresServerKeepAlive
		return wrapMalformed(id, err)
	case PropAuthenticationMethod:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.AuthenticationMethod, p.Presence = v, p.Presence|PresAuthenticationMethod
	case PropAuthenticationData:
		v, err := c.bin()
		if err != nil {
			return err
		}
		p.AuthenticationData = v
	case PropRequestProblemInformation:
		v, err := c.u8()
		p.RequestProblemInformation, p.Presence = v, p.Presence|PresRequestProblemInformation
		return wrapMalformed(id, err)
	case PropWillDelayInterval:
		v, err := c.u32()
		p.WillDelayInterval, p.Presence = v, p.Presence|PresWillDelayInterval
		return wrapMalformed(id, err)
	case PropRequestResponseInformation:
		v, err := c.u8()
		p.RequestResponseInformation, p.Presence = v, p.Presence|PresRequestResponseInformation
		return wrapMalformed(id, err)
	case PropResponseInformation:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.ResponseInformation, p.Presence = v, p.Presence|PresResponseInformation
	case PropServerReference:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.ServerReference, p.Presence = v, p.Presence|PresServerReference
	case PropReasonString:
		v, err := c.str()
		if err != nil {
			return err
		}
		p.ReasonString, p.Presence = v, p.Presence|PresReasonString
	case PropReceiveMaximum:
		v, err := c.u16()
		p.ReceiveMaximum, p.Presence = v, p.Presence|PresReceiveMaximum
		return wrapMalformed(id, err)
	case PropTopicAliasMaximum:
		v, err := c.u16()
		p.TopicAliasMaximum, p.Presence = v, p.Presence|PresTopicAliasMaximum
		return wrapMalformed(id, err)
	case PropTopicAlias:
		v, err := c.u16()
		p.TopicAlias, p.Presence = v, p.Presence|PresTopicAlias
		return wrapMalformed(id, err)
	case PropMaximumQoS:
		v, err := c.u8()
		p.MaximumQoS, p.Presence = v, p.Presence|PresMaximumQoS
		return wrapMalformed(id, err)
	case PropRetainAvailable:
		v, err := c.u8()
		p.RetainAvailable, p.Presence = v != 0, p.Presence|PresRetainAvailable
		return wrapMalformed(id, err)
	case PropUserProperty:
		k, err := c.str()
		if err != nil {
			return err
		}
		v, err := c.str()
		if err != nil {
			return err
		}
		p.UserProperties = append(p.UserProperties, UserProperty{Key: k, Value: v})
	case PropMaximumPacketSize:
		v, err := c.u32()
		p.MaximumPacketSize, p.Presence = v, p.Presence|PresMaximumPacketSize
		return wrapMalformed(id, err)
	case PropWildcardSubscriptionAvailable:
		v, err := c.u8()
		p.WildcardSubscriptionAvailable, p.Presence = v != 0, p.Presence|PresWildcardSubscriptionAvailable
		return wrapMalformed(id, err)
	case PropSubscriptionIdentifierAvailable:
		v, err := c.u8()
		p.SubscriptionIdentifierAvailable, p.Presence = v != 0, p.Presence|PresSubscriptionIdentifierAvailable
		return wrapMalformed(id, err)
	case PropSharedSubscriptionAvailable:
		v, err := c.u8()
		p.SharedSubscriptionAvailable, p.Presence = v != 0, p.Presence|PresSharedSubscriptionAvailable
		return wrapMalformed(id, err)
	default:
		return fmt.Errorf("unsupported property ID: 0x%02x", id)
	}
	return nil
}

func wrapMalformed(id uint8, err error) error {
	if err != nil {
		return fmt.Errorf("malformed property 0x%02x: %w", id, err)
	}
	return nil
}
