package insights

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oraig/impactguard/internal/domain/ai"
)

// ParseBatch reads a batch upload in the named format. The format defaults to
// CSV for backwards compatibility with plain uploads.
func ParseBatch(r io.Reader, format string) ([]ai.InsightRequest, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return ParseCSV(r)
	case "json":
		return ParseJSON(r)
	case "yaml", "yml":
		return ParseYAML(r)
	case "xml":
		return ParseXML(r)
	default:
		return nil, fmt.Errorf("insights: unsupported batch format %q (csv, json, yaml, xml)", format)
	}
}

// ParseJSON reads a JSON array of request objects.
func ParseJSON(r io.Reader) ([]ai.InsightRequest, error) {
	var reqs []ai.InsightRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("insights: decode json batch: %w", err)
	}
	return reqs, nil
}

// ParseYAML reads a YAML sequence of request mappings.
func ParseYAML(r io.Reader) ([]ai.InsightRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("insights: read yaml batch: %w", err)
	}
	var reqs []ai.InsightRequest
	if err := yaml.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("insights: decode yaml batch: %w", err)
	}
	return reqs, nil
}

type xmlRequest struct {
	User     string `xml:"user"`
	Category string `xml:"category"`
	Prompt   string `xml:"prompt"`
	Response string `xml:"response"`
}

type xmlBatch struct {
	XMLName  xml.Name     `xml:"requests"`
	Requests []xmlRequest `xml:"request"`
}

// ParseXML reads a <requests><request>...</request></requests> document.
func ParseXML(r io.Reader) ([]ai.InsightRequest, error) {
	var batch xmlBatch
	if err := xml.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("insights: decode xml batch: %w", err)
	}
	reqs := make([]ai.InsightRequest, 0, len(batch.Requests))
	for _, x := range batch.Requests {
		reqs = append(reqs, ai.InsightRequest{
			User:     x.User,
			Category: x.Category,
			Prompt:   x.Prompt,
			Response: x.Response,
		})
	}
	return reqs, nil
}
