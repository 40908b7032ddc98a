// Package analyzer provides the concrete channel analyzers behind the ports
// interfaces in internal/decision/ports: a Gemini-backed client for live
// verification and an offline client with deterministic results.
package analyzer

import (
	"errors"
	"fmt"
	"net/http"
)

// Channel labels used in logs and metrics.
const (
	ChannelDocument = "document"
	ChannelFace     = "face"
	ChannelLiveness = "liveness"
	ChannelVoice    = "voice"
)

// Failure kinds for the analyzer failure counter.
const (
	failureTransport = "transport"
	failureParse     = "parse"
)

// Caller errors: evidence was never captured for the channel. These indicate
// a sequencing bug upstream, not a provider fault.
var (
	ErrNoFrames = errors.New("analyzer: no frames captured for liveness assessment")
	ErrNoAudio  = errors.New("analyzer: no audio provided for voice verification")
)

// TransportError wraps a failed provider round trip: network fault, non-2xx
// status, or a response with no usable text. Parse failures of otherwise
// well-formed responses are NOT transport errors; those degrade to an
// indeterminate channel result instead.
type TransportError struct {
	Channel string
	Status  int // zero when the request never completed
	Message string
	cause   error
}

func (e *TransportError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("analyzer %s: %s: %v", e.Channel, e.Message, e.cause)
	}
	if e.Status != 0 {
		return fmt.Sprintf("analyzer %s: %s (status %d)", e.Channel, e.Message, e.Status)
	}
	return fmt.Sprintf("analyzer %s: %s", e.Channel, e.Message)
}

func (e *TransportError) Unwrap() error { return e.cause }

// Retryable reports whether the failure is worth retrying.
func (e *TransportError) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}
