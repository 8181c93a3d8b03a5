package mqtt5

import (
	"errors"
	"fmt"
)

// Standard errors returned by the client. These are the classified failure
// kinds surfaced at the public boundary (§7): Protocol, Connect, Connection,
// Publish, Subscribe/Unsubscribe, Auth, ResourceExhausted, IllegalState.
var (
	// ErrConnectionRefused is returned when the server rejects the connection
	// with a CONNACK reason code >= 0x80 ("Connect" kind). Unwrap to inspect
	// the MqttError.ReasonCode.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrSubscriptionFailed is returned when the server rejects a subscription
	// ("Subscribe/Unsubscribe" kind).
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrClientDisconnected is returned when an operation is cancelled because
	// the client was disconnected or stopped.
	ErrClientDisconnected = errors.New("client disconnected")

	// ErrNotConnected is returned by Publish/Subscribe/Unsubscribe when the
	// client is disconnected, auto-reconnect is off, and there is nowhere to
	// queue the request ("IllegalState" kind).
	ErrNotConnected = errors.New("not connected")

	// ErrUnconfigured is returned when an operation is issued on a client
	// that was never dialed ("IllegalState" kind).
	ErrUnconfigured = errors.New("client not configured")

	// ErrResourceExhausted is returned by the packet-id allocator when all
	// 65535 identifiers are currently in use ("ResourceExhausted" kind).
	ErrResourceExhausted = errors.New("no packet identifiers available")

	// ErrOfflineQueueFull is delivered to a queued publish's token when its
	// entry is evicted by the offline queue's drop-oldest policy.
	ErrOfflineQueueFull = errors.New("offline queue full, publish dropped")

	// ErrAuthHandlerMissing is returned when the server requests enhanced
	// authentication but no Authenticator was configured ("Auth" kind).
	ErrAuthHandlerMissing = errors.New("server requested authentication but no authenticator is configured")

	// ErrAuthIncomplete is returned when the enhanced-auth loop ends without
	// ever receiving a CONNACK ("Auth" kind); see MQTT v5 §4.12.
	ErrAuthIncomplete = errors.New("authentication exchange ended without CONNACK")

	// ErrProtocol wraps malformed-packet, unexpected-packet-type, unknown
	// property/reason-code, and VBI/decoder errors ("Protocol" kind).
	ErrProtocol = errors.New("protocol error")
)

// DisconnectError carries the reason a server-initiated DISCONNECT gave for
// closing the connection (§4.8 Server-initiated disconnect).
type DisconnectError struct {
	ReasonCode            ReasonCode
	ReasonString          string
	SessionExpiryInterval uint32
	ServerReference       string
	UserProperties        map[string]string
}

func (e *DisconnectError) Error() string {
	if e.ReasonString != "" {
		return fmt.Sprintf("server disconnected (0x%02X): %s", uint8(e.ReasonCode), e.ReasonString)
	}
	return fmt.Sprintf("server disconnected (0x%02X)", uint8(e.ReasonCode))
}

// MqttError represents an error returned by the MQTT server, including
// the MQTT v5.0 reason code.
type MqttError struct {
	ReasonCode ReasonCode
	Message    string
	Parent     error
}

func (e *MqttError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mqtt error (0x%02X): %s", uint8(e.ReasonCode), e.Message)
	}
	if e.Parent != nil {
		return fmt.Sprintf("mqtt error (0x%02X): %s", uint8(e.ReasonCode), e.Parent.Error())
	}
	return fmt.Sprintf("mqtt error (0x%02X)", uint8(e.ReasonCode))
}

func (e *MqttError) Unwrap() error {
	return e.Parent
}

// Is implements the errors.Is interface, allowing checks against ReasonCode constants.
func (e *MqttError) Is(target error) bool {
	if rc, ok := target.(ReasonCode); ok {
		return e.ReasonCode == rc
	}
	return false
}

// IsReasonCode reports whether err is an *MqttError carrying the given
// reason code, unwrapping through errors.Unwrap chains.
func IsReasonCode(err error, code uint8) bool {
	var mqttErr *MqttError
	if !errors.As(err, &mqttErr) {
		return false
	}
	return uint8(mqttErr.ReasonCode) == code
}
