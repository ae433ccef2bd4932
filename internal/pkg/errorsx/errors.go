package errorsx

import (
	"context"
	"errors"
	"net"
	"syscall"
)

var (
	// Retryable indicates the operation may succeed if retried
	Retryable = errors.New("retryable")
	// Permanent indicates the operation will not succeed upon retry
	Permanent = errors.New("permanent")
)

// WrapRetryable wraps an error as retryable
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(Retryable, err)
}

// WrapPermanent wraps an error as permanent
func WrapPermanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(Permanent, err)
}

func IsRetryable(err error) bool {
	return errors.Is(err, Retryable)
}

func IsPermanent(err error) bool {
	return errors.Is(err, Permanent)
}

// Classify marks err as retryable or permanent.
//
// Errors already marked are returned unchanged. Cancellation of the caller's
// context is permanent: retrying cannot outlive the caller. Transient network
// failures (refused, reset, timed out dials) are retryable. Everything else,
// including authentication failures, is permanent.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsRetryable(err), IsPermanent(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapPermanent(err)
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return WrapRetryable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return WrapRetryable(err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return WrapRetryable(err)
	}

	return WrapPermanent(err)
}
