package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrTimeout indicates the request did not finish within the client's bounded wait.
var ErrTimeout = errors.New("ai request timed out")

// ErrUnavailable covers a missing or rejected credential, an unreachable
// endpoint and server-side failures. Callers may substitute a simulated answer.
var ErrUnavailable = errors.New("ai provider unavailable")
