package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNotConfigured indicates no API key is available; the insight feature is
// degraded, not the application.
var ErrNotConfigured = errors.New("ai client not configured")
