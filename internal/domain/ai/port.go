package ai

import "context"

// Image payload untuk vision call
type Image struct {
	Data     []byte
	MIMEType string
}

// Client port ke model endpoint. Implementations never retry internally.
type Client interface {
	GenerateFromImage(ctx context.Context, img Image, prompt string) (string, error)
	GenerateFromText(ctx context.Context, prompt string) (string, error)
	Name() string
}
