package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/oraig/impactguard/internal/application"
	domai "github.com/oraig/impactguard/internal/domain/ai"
	"github.com/oraig/impactguard/internal/infra/ai/prompt"
)

const (
	defaultModel     = "gpt-3.5-turbo"
	defaultMaxTokens = 512
	maxAttempts      = 3
)

type Client struct {
	*openai.Client
	Model string
	Sleep application.Sleeper
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		Client: openai.NewClient(apiKey),
		Model:  model,
		Sleep:  application.SystemSleeper,
	}
}

// GenerateInsight runs one chat completion, retrying up to three times with
// 2^attempt seconds of backoff, but only when the provider signals a rate
// limit. Classification is typed, not string matching.
func (c *Client) GenerateInsight(ctx context.Context, req domai.InsightRequest) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.InsightSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: prompt.InsightUserPrompt(req)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		chatReq.MaxCompletionTokens = maxTokens
	} else {
		chatReq.MaxTokens = maxTokens
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("chat completion returned no choices")
			}
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}
		lastErr = err
		if isRateLimited(err) && attempt < maxAttempts-1 {
			c.Sleep(time.Duration(1<<attempt) * time.Second)
			continue
		}
		break
	}

	if isRateLimited(lastErr) {
		return "", domai.ErrQuotaExceeded
	}
	return "", fmt.Errorf("failed to create chat completion: %w", lastErr)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
