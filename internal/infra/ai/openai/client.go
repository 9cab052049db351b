package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/classify"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/prompt"
)

const (
	maxTokens      = 2048
	defaultModel   = "gpt-4o"
	defaultTimeout = 90 * time.Second
)

// Client OpenAI-compatible chat completion client with vision input.
type Client struct {
	*openai.Client
	Model   string
	Timeout time.Duration
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, Timeout: timeout}
}

func (c *Client) Name() string { return "openai:" + c.Model }

func (c *Client) GenerateFromImage(ctx context.Context, img ai.Image, userPrompt string) (string, error) {
	dataURI := "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	return c.complete(ctx, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURI,
				Detail: openai.ImageURLDetailHigh,
			}},
		},
	})
}

func (c *Client) GenerateFromText(ctx context.Context, userPrompt string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})
}

func (c *Client) complete(ctx context.Context, user openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			user,
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.Model, "o1") || strings.HasPrefix(c.Model, "o3") || strings.HasPrefix(c.Model, "o4") || strings.HasPrefix(c.Model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = 0.2
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", mapError(err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ai.ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return classify.Status(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classify.Status(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return classify.Transport(err)
}
