package analysis

import (
	"image"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
)

// NormalizedImage is a fixed-size 3-channel bitmap ready for the vision call.
type NormalizedImage interface {
	image.Image
	Payload() (ai.Image, error)
}

// Normalizer port (validasi + resize gambar)
type Normalizer interface {
	Normalize(data []byte, declared ImageType) (NormalizedImage, error)
}
