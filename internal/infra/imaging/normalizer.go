package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
)

const (
	DefaultSize        = 512
	DefaultJPEGQuality = 90
	// decoded pixel ceiling, guards against decompression bombs
	maxSourcePixels = 64 << 20
)

// format names as reported by image.DecodeConfig
var supported = map[string]bool{
	"png":  true,
	"jpeg": true,
	"bmp":  true,
	"tiff": true,
}

// Normalizer decodes, flattens to RGB and resamples to Size x Size.
type Normalizer struct {
	Size        int
	JPEGQuality int
	MaxBytes    int64
}

func New(size, quality int, maxBytes int64) *Normalizer {
	if size <= 0 {
		size = DefaultSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Normalizer{Size: size, JPEGQuality: quality, MaxBytes: maxBytes}
}

func (n *Normalizer) Normalize(data []byte, declared analysis.ImageType) (analysis.NormalizedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", analysis.ErrInvalidFormat)
	}
	if !declared.Valid() {
		return nil, fmt.Errorf("%w: unsupported image type %q", analysis.ErrInvalidFormat, declared)
	}
	if n.MaxBytes > 0 && int64(len(data)) > n.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", analysis.ErrInvalidFormat, len(data), n.MaxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidFormat, err)
	}
	if !supported[format] {
		return nil, fmt.Errorf("%w: format %q not supported", analysis.ErrInvalidFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("%w: bad dimensions %dx%d", analysis.ErrInvalidFormat, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", analysis.ErrInvalidFormat, format, err)
	}

	size := n.Size
	if size <= 0 {
		size = DefaultSize
	}
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	// transparent areas end up white
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, src.Bounds(), draw.Over, nil)

	img := &Image{
		Pix:     make([]uint8, size*size*3),
		Stride:  size * 3,
		Rect:    canvas.Bounds(),
		Format:  format,
		quality: n.JPEGQuality,
	}
	for y := 0; y < size; y++ {
		row := canvas.Pix[y*canvas.Stride : y*canvas.Stride+size*4]
		out := img.Pix[y*img.Stride : (y+1)*img.Stride]
		for x := 0; x < size; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}
	return img, nil
}

// Image packed RGB, 3 bytes per pixel
type Image struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
	// Format of the decoded source (png, jpeg, bmp, tiff)
	Format string

	quality int
}

func (m *Image) Channels() int { return 3 }

func (m *Image) ColorModel() color.Model { return color.RGBAModel }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return color.RGBA{}
	}
	i := (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*3
	return color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: 0xff}
}

// Payload encodes the bitmap as JPEG for the vision request.
func (m *Image) Payload() (ai.Image, error) {
	q := m.quality
	if q <= 0 {
		q = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, m, &jpeg.Options{Quality: q}); err != nil {
		return ai.Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return ai.Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}
