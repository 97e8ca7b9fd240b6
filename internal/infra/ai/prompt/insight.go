package prompt

import (
	"fmt"
	"strings"

	"github.com/oraig/impactguard/internal/domain/ai"
)

// InsightSystemPrompt combines the knowledge base with the reviewer-supplied
// context block.
func InsightSystemPrompt(req ai.InsightRequest) string {
	return strings.TrimSpace(req.KnowledgeBase + "\n\n" + req.Context)
}

// InsightUserPrompt builds the user message around one prompt/response pair.
func InsightUserPrompt(req ai.InsightRequest) string {
	return fmt.Sprintf(`Given the following information:
User: %s
Category: %s
Prompt: %s
Response: %s
Generate a concise, meaningful insight based on this information.`,
		req.User, req.Category, req.Prompt, req.Response)
}
