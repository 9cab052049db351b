// Package classify maps provider failures onto the ai error kinds.
package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
)

// Status maps an HTTP status of a failed response. Unknown 4xx codes are
// returned as plain errors and stay fatal.
func Status(code int, body string) error {
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", ai.ErrQuotaExceeded, code, body)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ai.ErrTimeout, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: credential rejected (status %d)", ai.ErrUnavailable, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d: %s", ai.ErrUnavailable, code, body)
	}
	return fmt.Errorf("unexpected status %d: %s", code, body)
}

// Transport maps an error returned before any response was read.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ai.ErrQuotaExceeded) || errors.Is(err, ai.ErrTimeout) || errors.Is(err, ai.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
	}
	return err
}
