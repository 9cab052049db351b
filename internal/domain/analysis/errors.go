package analysis

import (
	"context"
	"errors"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
)

// ErrInvalidFormat covers unsupported, empty or corrupt images and unknown
// modalities. Fatal for the run.
var ErrInvalidFormat = errors.New("invalid image format")

// Kind classifies a run failure.
type Kind string

const (
	KindNone           Kind = ""
	KindInvalidFormat  Kind = "InvalidFormat"
	KindAPIUnavailable Kind = "ApiUnavailable"
	KindAPITimeout     Kind = "ApiTimeout"
	KindAPIQuota       Kind = "ApiQuota"
	KindCanceled       Kind = "Canceled"
	KindInternal       Kind = "Internal"
)

// KindOf maps an error to its kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidFormat):
		return KindInvalidFormat
	case errors.Is(err, ai.ErrQuotaExceeded):
		return KindAPIQuota
	case errors.Is(err, ai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindAPITimeout
	case errors.Is(err, ai.ErrUnavailable):
		return KindAPIUnavailable
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	return KindInternal
}
