package insights

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/oraig/impactguard/internal/application"
	"github.com/oraig/impactguard/internal/domain/ai"
	"github.com/oraig/impactguard/internal/session"
)

// requiredColumns for batch CSV uploads.
var requiredColumns = []string{"User", "Category", "Prompt", "Response"}

// Service generates insights through the configured AI client. A nil client
// means the feature is degraded (no API key), not broken.
type Service struct {
	client ai.Client
	Clock  application.Clock
}

func NewService(client ai.Client) *Service {
	return &Service{client: client, Clock: application.SystemClock{}}
}

func (s *Service) Configured() bool { return s.client != nil }

// Generate produces one insight and appends it to the session.
func (s *Service) Generate(ctx context.Context, st *session.State, req ai.InsightRequest) (ai.Insight, error) {
	if s.client == nil {
		return ai.Insight{}, ai.ErrNotConfigured
	}
	content, err := s.client.GenerateInsight(ctx, req)
	if err != nil {
		return ai.Insight{}, err
	}
	insight := ai.Insight{
		ID:        "INS-" + uuid.NewString(),
		User:      req.User,
		Category:  req.Category,
		Content:   content,
		CreatedAt: s.Clock.Now(),
	}
	st.AddInsight(insight)
	return insight, nil
}

// GenerateBatch runs a parsed CSV batch, stopping at the first hard failure
// and returning the insights generated so far.
func (s *Service) GenerateBatch(ctx context.Context, st *session.State, reqs []ai.InsightRequest) ([]ai.Insight, error) {
	out := make([]ai.Insight, 0, len(reqs))
	for _, req := range reqs {
		insight, err := s.Generate(ctx, st, req)
		if err != nil {
			return out, err
		}
		out = append(out, insight)
	}
	return out, nil
}

// ParseCSV reads a batch upload. The header must contain the User, Category,
// Prompt and Response columns.
func ParseCSV(r io.Reader) ([]ai.InsightRequest, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("insights: read csv header: %w", err)
	}

	index := make(map[string]int)
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("insights: csv must contain these columns: %s", strings.Join(requiredColumns, ", "))
		}
	}

	var reqs []ai.InsightRequest
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("insights: read csv row: %w", err)
		}
		reqs = append(reqs, ai.InsightRequest{
			User:     row[index["User"]],
			Category: row[index["Category"]],
			Prompt:   row[index["Prompt"]],
			Response: row[index["Response"]],
		})
	}
	return reqs, nil
}
