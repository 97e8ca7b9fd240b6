package middleware

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oraig/impactguard/internal/ui"
)

// Input validation and sanitization utilities

var targetNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ._-]{1,64}$`)

// ValidateTargetName checks a model target name before it enters the session.
func ValidateTargetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if !targetNamePattern.MatchString(name) {
		return fmt.Errorf("invalid target name format (alphanumeric, space, dot, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateEndpoint validates model endpoint URLs
func ValidateEndpoint(rawURL string) error {
	if rawURL == "" {
		return nil // Optional field
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("URL host cannot be empty")
	}

	return nil
}

// ValidatePage checks a navigation target against the known pages.
func ValidatePage(page string) error {
	if page == "" {
		return fmt.Errorf("page cannot be empty")
	}
	if !ui.KnownPage(page) {
		return fmt.Errorf("unknown page: %s", page)
	}
	return nil
}

// ValidateDuration clamps an assessment duration to a sane window.
func ValidateDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second // default
	}
	if d > 10*time.Minute {
		return 10 * time.Minute // max
	}
	return d
}

// ValidateStrictness clamps metadata validation strictness to 0..3.
func ValidateStrictness(s int) int {
	if s < 0 {
		return 0
	}
	if s > 3 {
		return 3
	}
	return s
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
