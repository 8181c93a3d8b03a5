package mqtt5

// intLimitOption builds an Option that stores max into the clientOptions
// field selected by set. The three limit options below differ only in
// which field they target.
func intLimitOption(set func(*clientOptions, int)) func(int) Option {
	return func(max int) Option {
		return func(o *clientOptions) {
			set(o, max)
		}
	}
}

// WithMaxTopicLength sets the maximum allowed topic length.
// Default is 65535 (MQTT spec maximum).
// Set to a lower value to reject topics exceeding your application's needs.
var WithMaxTopicLength = intLimitOption(func(o *clientOptions, max int) { o.MaxTopicLength = max })

// WithMaxPayloadSize sets the maximum allowed outgoing payload size.
// Default is 268435455 (256MB, MQTT spec maximum).
// Set to a lower value to prevent sending large messages.
var WithMaxPayloadSize = intLimitOption(func(o *clientOptions, max int) { o.MaxPayloadSize = max })

// WithMaxIncomingPacket sets the maximum allowed incoming packet size.
// Default is 268435455 (256MB, MQTT spec maximum).
// Set to a lower value to protect against memory exhaustion from large incoming packets.
// Example: WithMaxIncomingPacket(1024 * 1024) limits incoming packets to 1MB.
var WithMaxIncomingPacket = intLimitOption(func(o *clientOptions, max int) { o.MaxIncomingPacket = max })
