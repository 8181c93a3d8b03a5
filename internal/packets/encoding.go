package packets

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// appendLengthPrefixed appends a 2-byte big-endian length prefix followed by
// the raw bytes of p. Both MQTT UTF-8 strings and binary data share this
// shape; only the decode side needs to distinguish them (string validation).
func appendLengthPrefixed(dst []byte, p []byte) []byte {
	n := uint16(len(p))
	dst = append(dst, byte(n>>8), byte(n))
	return append(dst, p...)
}

// takeLengthPrefixed reads a 2-byte length prefix plus that many following
// bytes from buf. Returns the payload slice and total bytes consumed.
func takeLengthPrefixed(buf []byte, what string) ([]byte, int, error) {
	if len(buf) < 2 {
		return nil, 0, fmt.Errorf("buffer too short for %s length", what)
	}
	length := int(buf[0])<<8 | int(buf[1])
	if len(buf) < 2+length {
		return nil, 0, fmt.Errorf("buffer too short for %s data: need %d, have %d", what, 2+length, len(buf))
	}
	return buf[2 : 2+length], 2 + length, nil
}

// encodeString encodes a UTF-8 string with a 2-byte length prefix (MSB first).
func encodeString(s string) []byte {
	return appendString(make([]byte, 0, 2+len(s)), s)
}

// appendString appends a length-prefixed string to dst.
func appendString(dst []byte, s string) []byte {
	return appendLengthPrefixed(dst, []byte(s))
}

// encodeBinary encodes binary data with a 2-byte length prefix (MSB first).
func encodeBinary(data []byte) []byte {
	return appendBinary(make([]byte, 0, 2+len(data)), data)
}

// appendBinary appends length-prefixed binary data to dst.
func appendBinary(dst []byte, data []byte) []byte {
	return appendLengthPrefixed(dst, data)
}

// decodeString decodes an MQTT UTF-8 string (2-byte length + data), rejecting
// embedded nulls and invalid UTF-8 per the spec's string requirements.
func decodeString(buf []byte) (string, int, error) {
	raw, n, err := takeLengthPrefixed(buf, "string")
	if err != nil {
		return "", 0, err
	}
	s := string(raw)
	if strings.Contains(s, "\x00") {
		return "", 0, fmt.Errorf("topic contains null byte which is not allowed")
	}
	if !utf8.ValidString(s) {
		return "", 0, fmt.Errorf("invalid UTF-8 string")
	}
	return s, n, nil
}

// decodeBinary reads length-prefixed binary data from the buffer.
func decodeBinary(buf []byte) ([]byte, int, error) {
	return takeLengthPrefixed(buf, "binary")
}
