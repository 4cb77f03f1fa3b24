package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for the failure modes the UI layers distinguish between.
var (
	// ErrNetworkUnreachable means no usable connectivity at all (DNS cannot
	// resolve, no route).
	ErrNetworkUnreachable = errors.New("network unreachable")

	// ErrServerUnreachable means connectivity exists but the API host does
	// not accept connections.
	ErrServerUnreachable = errors.New("server unreachable")

	// ErrProcessingFailed means the backend reported a failed/error
	// processing status for an image.
	ErrProcessingFailed = errors.New("image processing failed")

	// ErrProcessingTimeout means all poll attempts were used up before the
	// backend reached a terminal status.
	ErrProcessingTimeout = errors.New("timed out waiting for image processing")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Body)
}

// wrapTransportError tags a transport-level failure with the matching
// sentinel so callers can pick a user-facing message without string
// matching. Context cancellation passes through untagged.
func wrapTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// connect refused, reset, host down: the network itself is up but
		// the API endpoint is not answering
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	return err
}
