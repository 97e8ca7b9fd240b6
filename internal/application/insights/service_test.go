package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraig/impactguard/internal/domain/ai"
	"github.com/oraig/impactguard/internal/session"
)

type fakeClient struct {
	content string
	err     error
	calls   int
}

func (f *fakeClient) GenerateInsight(ctx context.Context, req ai.InsightRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func TestGenerate(t *testing.T) {
	t.Run("nil client reports not configured", func(t *testing.T) {
		svc := NewService(nil)
		assert.False(t, svc.Configured())

		st := session.NewState("s")
		_, err := svc.Generate(context.Background(), st, ai.InsightRequest{Prompt: "p", Response: "r"})
		assert.ErrorIs(t, err, ai.ErrNotConfigured)
		assert.Empty(t, st.Insights())
	})

	t.Run("appends the generated insight to the session", func(t *testing.T) {
		svc := NewService(&fakeClient{content: "be careful with prompt injection"})
		st := session.NewState("s")

		insight, err := svc.Generate(context.Background(), st, ai.InsightRequest{
			User:     "alice",
			Category: "security",
			Prompt:   "p",
			Response: "r",
		})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(insight.ID, "INS-"))
		assert.Equal(t, "alice", insight.User)
		assert.Equal(t, "be careful with prompt injection", insight.Content)
		require.Len(t, st.Insights(), 1)
		assert.Equal(t, insight.ID, st.Insights()[0].ID)
	})

	t.Run("client errors pass through without storing", func(t *testing.T) {
		svc := NewService(&fakeClient{err: ai.ErrQuotaExceeded})
		st := session.NewState("s")

		_, err := svc.Generate(context.Background(), st, ai.InsightRequest{Prompt: "p", Response: "r"})
		assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
		assert.Empty(t, st.Insights())
	})
}

func TestGenerateBatch(t *testing.T) {
	t.Run("stops at the first failure and returns partial results", func(t *testing.T) {
		client := &fakeClient{content: "ok"}
		svc := NewService(client)
		st := session.NewState("s")

		reqs := []ai.InsightRequest{
			{User: "a", Prompt: "p1", Response: "r1"},
			{User: "b", Prompt: "p2", Response: "r2"},
			{User: "c", Prompt: "p3", Response: "r3"},
		}

		// fail on the third call
		calls := 0
		failing := clientFunc(func(ctx context.Context, req ai.InsightRequest) (string, error) {
			calls++
			if calls == 3 {
				return "", errors.New("upstream down")
			}
			return "ok", nil
		})
		svc = NewService(failing)

		out, err := svc.GenerateBatch(context.Background(), st, reqs)
		assert.Error(t, err)
		assert.Len(t, out, 2)
		assert.Len(t, st.Insights(), 2)
	})

	t.Run("all rows succeed", func(t *testing.T) {
		svc := NewService(&fakeClient{content: "ok"})
		st := session.NewState("s")

		out, err := svc.GenerateBatch(context.Background(), st, []ai.InsightRequest{
			{Prompt: "p1", Response: "r1"},
			{Prompt: "p2", Response: "r2"},
		})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})
}

type clientFunc func(ctx context.Context, req ai.InsightRequest) (string, error)

func (f clientFunc) GenerateInsight(ctx context.Context, req ai.InsightRequest) (string, error) {
	return f(ctx, req)
}

func TestParseCSV(t *testing.T) {
	t.Run("maps rows by header position", func(t *testing.T) {
		csv := "Category,User,Prompt,Response\nsecurity,alice,hello,world\nbias,bob,foo,bar\n"
		reqs, err := ParseCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "alice", reqs[0].User)
		assert.Equal(t, "security", reqs[0].Category)
		assert.Equal(t, "hello", reqs[0].Prompt)
		assert.Equal(t, "bar", reqs[1].Response)
	})

	t.Run("missing required column is an error", func(t *testing.T) {
		csv := "User,Category,Prompt\nalice,security,hello\n"
		_, err := ParseCSV(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Response")
	})

	t.Run("empty input is an error", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestParseBatch(t *testing.T) {
	t.Run("defaults to csv", func(t *testing.T) {
		csv := "User,Category,Prompt,Response\nalice,security,hello,world\n"
		reqs, err := ParseBatch(strings.NewReader(csv), "")
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, "alice", reqs[0].User)
	})

	t.Run("json array", func(t *testing.T) {
		body := `[{"user":"alice","category":"security","prompt":"p","response":"r"},
		          {"user":"bob","category":"bias","prompt":"p2","response":"r2"}]`
		reqs, err := ParseBatch(strings.NewReader(body), "json")
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "bob", reqs[1].User)
		assert.Equal(t, "r2", reqs[1].Response)
	})

	t.Run("yaml sequence", func(t *testing.T) {
		body := `
- user: alice
  category: security
  prompt: p
  response: r
- user: bob
  category: bias
  prompt: p2
  response: r2
`
		reqs, err := ParseBatch(strings.NewReader(body), "yaml")
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "alice", reqs[0].User)
		assert.Equal(t, "bias", reqs[1].Category)
	})

	t.Run("xml document", func(t *testing.T) {
		body := `<requests>
  <request><user>alice</user><category>security</category><prompt>p</prompt><response>r</response></request>
  <request><user>bob</user><category>bias</category><prompt>p2</prompt><response>r2</response></request>
</requests>`
		reqs, err := ParseBatch(strings.NewReader(body), "xml")
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "p2", reqs[1].Prompt)
	})

	t.Run("yml alias works", func(t *testing.T) {
		reqs, err := ParseBatch(strings.NewReader("- user: a\n  prompt: p\n  response: r\n"), "yml")
		require.NoError(t, err)
		assert.Len(t, reqs, 1)
	})

	t.Run("unknown format is an error", func(t *testing.T) {
		_, err := ParseBatch(strings.NewReader("x"), "toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported batch format")
	})

	t.Run("malformed payloads are errors", func(t *testing.T) {
		_, err := ParseBatch(strings.NewReader("{not json"), "json")
		assert.Error(t, err)
		_, err = ParseBatch(strings.NewReader("<open"), "xml")
		assert.Error(t, err)
		_, err = ParseBatch(strings.NewReader("\t- broken"), "yaml")
		assert.Error(t, err)
	})
}
