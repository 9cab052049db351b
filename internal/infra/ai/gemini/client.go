package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/classify"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/prompt"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
	defaultTimeout = 90 * time.Second
	maxTokens      = 2048
)

type blob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Client Gemini generateContent over REST. Retries are disabled.
type Client struct {
	http    *resty.Client
	apiKey  string
	model   string
	baseURL string
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	return &Client{
		http:    client,
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Name() string { return "gemini:" + c.model }

func (c *Client) GenerateFromImage(ctx context.Context, img ai.Image, userPrompt string) (string, error) {
	return c.generate(ctx, []part{
		{Text: userPrompt},
		{InlineData: &blob{MimeType: img.MIMEType, Data: base64.StdEncoding.EncodeToString(img.Data)}},
	})
}

func (c *Client) GenerateFromText(ctx context.Context, userPrompt string) (string, error) {
	return c.generate(ctx, []part{{Text: userPrompt}})
}

func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: prompt.GetSystemPrompt()}}},
		Contents:          []content{{Role: "user", Parts: parts}},
		GenerationConfig:  generationConfig{Temperature: 0.2, MaxOutputTokens: maxTokens},
	}

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(req).
		SetResult(&out).
		Post(c.baseURL + "/models/" + c.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini generateContent: %w", classify.Transport(err))
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini generateContent: %w", classify.Status(resp.StatusCode(), truncate(resp.String(), 256)))
	}

	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked the prompt: %s", out.PromptFeedback.BlockReason)
	}
	var b strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: gemini returned no text", ai.ErrUnavailable)
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
