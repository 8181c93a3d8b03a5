package mqtt5

import (
	"math/rand/v2"
	"time"
)

// ReconnectStrategy computes the delay before the next reconnect attempt.
//
// NextDelay is called with a 1-indexed attempt counter and the error that
// caused the connection to be lost. A zero ok return means "stop trying":
// the engine abandons reconnection and settles in Disconnected.
type ReconnectStrategy interface {
	NextDelay(attempt int, cause error) (delay time.Duration, ok bool)
}

// ExponentialBackoff doubles the delay on every attempt, capped at MaxDelay,
// with optional jitter. It is the default strategy (1s, 60s, no jitter, unlimited attempts).
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// JitterFactor adds a uniform random value in [0, delay*JitterFactor] to the
	// computed delay, clamped to MaxDelay. Must be in [0.0, 1.0].
	JitterFactor float64
	// MaxAttempts caps the number of attempts; 0 means unlimited.
	MaxAttempts int
}

// NewExponentialBackoff constructs an ExponentialBackoff, panicking on an
// invalid combination of parameters (mirrors the constructor-invariant style
// used throughout this package's functional options).
func NewExponentialBackoff(initialDelay, maxDelay time.Duration, jitterFactor float64, maxAttempts int) *ExponentialBackoff {
	if initialDelay <= 0 {
		panic("mqtt5: ExponentialBackoff initialDelay must be > 0")
	}
	if maxDelay < initialDelay {
		panic("mqtt5: ExponentialBackoff maxDelay must be >= initialDelay")
	}
	if jitterFactor < 0.0 || jitterFactor > 1.0 {
		panic("mqtt5: ExponentialBackoff jitterFactor must be in [0.0, 1.0]")
	}
	if maxAttempts < 0 {
		panic("mqtt5: ExponentialBackoff maxAttempts must be >= 0")
	}
	return &ExponentialBackoff{
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
		JitterFactor: jitterFactor,
		MaxAttempts:  maxAttempts,
	}
}

func (e *ExponentialBackoff) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if e.MaxAttempts > 0 && attempt > e.MaxAttempts {
		return 0, false
	}

	shift := attempt - 1
	if shift > 30 {
		shift = 30 // prevent overflow of the 1<<shift below
	}
	delay := e.InitialDelay * time.Duration(1<<uint(shift))
	if delay > e.MaxDelay || delay <= 0 {
		delay = e.MaxDelay
	}

	if e.JitterFactor > 0 {
		jitter := time.Duration(rand.Float64() * e.JitterFactor * float64(delay))
		delay += jitter
		if delay > e.MaxDelay {
			delay = e.MaxDelay
		}
	}

	return delay, true
}

// ConstantBackoff retries after a fixed delay, up to MaxAttempts (0 = unlimited).
type ConstantBackoff struct {
	Delay       time.Duration
	MaxAttempts int
}

func (c ConstantBackoff) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if c.MaxAttempts > 0 && attempt > c.MaxAttempts {
		return 0, false
	}
	return c.Delay, true
}

// LinearBackoff grows the delay by Step on every attempt, capped at MaxDelay.
type LinearBackoff struct {
	Initial     time.Duration
	Step        time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func (l LinearBackoff) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if l.MaxAttempts > 0 && attempt > l.MaxAttempts {
		return 0, false
	}
	delay := l.Initial + l.Step*time.Duration(attempt-1)
	if l.MaxDelay > 0 && delay > l.MaxDelay {
		delay = l.MaxDelay
	}
	return delay, true
}

// NoReconnect never reconnects; the first connection loss is terminal.
type NoReconnect struct{}

func (NoReconnect) NextDelay(int, error) (time.Duration, bool) { return 0, false }

// reconnectStrategyFromLegacy synthesizes an ExponentialBackoff from the
// legacy reconnectDelay / maxReconnectDelay / maxReconnectAttempts knobs,
// for configurations that haven't set an explicit ReconnectStrategy.
func reconnectStrategyFromLegacy(o *clientOptions) ReconnectStrategy {
	if o.ReconnectStrategy != nil {
		return o.ReconnectStrategy
	}
	initial := o.ReconnectDelay
	if initial <= 0 {
		initial = time.Second
	}
	max := o.MaxReconnectDelay
	if max < initial {
		max = 60 * time.Second
	}
	return &ExponentialBackoff{
		InitialDelay: initial,
		MaxDelay:     max,
		JitterFactor: 0,
		MaxAttempts:  o.MaxReconnectAttempts,
	}
}
