// internal/payment/retry_policy.go
package payment

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// IsRetryableError reports whether a provider call failed for transient
// reasons (deadline, network blip, refused connection) and may be retried by
// the caller. Provider rejections (4xx, bad token) are final.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return isRetryableNetworkError(err) || isRetryableSystemError(err)
}

func isRetryableNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func isRetryableSystemError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
