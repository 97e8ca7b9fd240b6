package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oraig/impactguard/internal/application"
	"github.com/oraig/impactguard/internal/domain/citations"
)

const (
	defaultAPIBase = "https://api.crossref.org"
	defaultDOIBase = "https://doi.org"

	searchRows     = 10
	defaultRetries = 3
	defaultTimeout = 5 * time.Second
	searchTimeout  = 10 * time.Second
)

var urlPattern = regexp.MustCompile(`^https?://`)

// Client talks to CrossRef and the DOI resolver. All calls are best-effort:
// network failures degrade to empty results, never to a crashed page.
type Client struct {
	HTTP    *http.Client
	APIBase string
	DOIBase string
	Sleep   application.Sleeper
}

func New() *Client {
	return &Client{
		HTTP:    &http.Client{},
		APIBase: defaultAPIBase,
		DOIBase: defaultDOIBase,
		Sleep:   application.SystemSleeper,
	}
}

// RetryRequest issues up to `retries` attempts with 2^attempt seconds of
// backoff between them and returns the response only on HTTP 200, nil
// otherwise. Only HEAD and GET are supported.
func (c *Client) RetryRequest(ctx context.Context, rawURL, method string, retries int, timeout time.Duration) *http.Response {
	var httpMethod string
	switch strings.ToLower(method) {
	case "head":
		httpMethod = http.MethodHead
	case "get":
		httpMethod = http.MethodGet
	default:
		return nil
	}
	if retries <= 0 {
		retries = defaultRetries
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := *c.HTTP
	client.Timeout = timeout

	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			c.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
		req, err := http.NewRequestWithContext(ctx, httpMethod, rawURL, nil)
		if err != nil {
			slog.Error("invalid citation request", "url", rawURL, "err", err)
			return nil
		}
		resp, err := client.Do(req)
		if err != nil {
			slog.Error("network error resolving citation url", "attempt", attempt+1, "err", err)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp
		}
		resp.Body.Close()
	}
	return nil
}

// Search queries the CrossRef works endpoint.
func (c *Client) Search(ctx context.Context, query string) ([]citations.Article, error) {
	if strings.TrimSpace(query) == "" {
		return []citations.Article{}, nil
	}

	endpoint := fmt.Sprintf("%s/works?query=%s&rows=%d", c.APIBase, url.QueryEscape(query), searchRows)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	client := *c.HTTP
	client.Timeout = searchTimeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref search: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Message struct {
			Items []citations.Article `json:"items"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("crossref search: decode: %w", err)
	}
	if body.Message.Items == nil {
		return []citations.Article{}, nil
	}
	return body.Message.Items, nil
}

// ValidateDOI checks the DOI format first and only then tries to resolve it.
func (c *Client) ValidateDOI(ctx context.Context, doi string) bool {
	if !citations.IsValidDOIFormat(doi) {
		return false
	}
	resp := c.RetryRequest(ctx, c.DOIBase+"/"+doi, "head", defaultRetries, defaultTimeout)
	if resp == nil {
		return false
	}
	resp.Body.Close()
	return true
}

// ValidateURL checks that a URL resolves.
func (c *Client) ValidateURL(ctx context.Context, rawURL string) bool {
	if rawURL == "" || !urlPattern.MatchString(rawURL) {
		return false
	}
	resp := c.RetryRequest(ctx, rawURL, "head", defaultRetries, defaultTimeout)
	if resp == nil {
		return false
	}
	resp.Body.Close()
	return true
}
