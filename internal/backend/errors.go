package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy surfaced to the API layer. Each provider maps its HTTP and
// transport failures onto these before returning.
var (
	// ErrNoTranscript means the backend responded but yielded no usable
	// text — a content limitation, not a system fault.
	ErrNoTranscript = errors.New("no transcript available")

	// ErrUnavailable means the backend returned 5xx, rate-limited us, or
	// refused the connection. Retryable.
	ErrUnavailable = errors.New("transcription service unavailable")

	// ErrTimeout means the backend exceeded its allotted wait.
	ErrTimeout = errors.New("transcription request timed out")
)

// classifyStatus maps a non-2xx response to the taxonomy.
func classifyStatus(service string, status int, body []byte) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned 404", ErrNoTranscript, service)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s rate limited", ErrUnavailable, service)
	case status >= 500:
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, service, status)
	default:
		return fmt.Errorf("%s API error (status %d): %s", service, status, truncate(body, 200))
	}
}

// classifyTransport maps a transport-level error (client.Do) to the taxonomy.
func classifyTransport(service string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, service)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrTimeout, service)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, service, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
