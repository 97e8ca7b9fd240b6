package ai

import "context"

// InsightRequest carries one prompt/response pair plus the grounding context
// for insight generation.
type InsightRequest struct {
	User          string  `json:"user"`
	Category      string  `json:"category"`
	Prompt        string  `json:"prompt"`
	Response      string  `json:"response"`
	KnowledgeBase string  `json:"knowledge_base,omitempty"`
	Context       string  `json:"context,omitempty"`
	Temperature   float32 `json:"temperature,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty"`
}

type Client interface {
	GenerateInsight(ctx context.Context, req InsightRequest) (string, error)
}
