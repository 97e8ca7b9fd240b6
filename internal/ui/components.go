package ui

import (
	"fmt"
	"html"

	"github.com/oraig/impactguard/internal/theme"
)

// Renderers never fail a page: bad input produces a visible error placeholder
// instead.

// Card renders a classic bordered card. cardType selects the accent border:
// default, warning, error or success.
func Card(p theme.Palette, title, content, cardType string) string {
	if title == "" || content == "" {
		return errorCard("Failed to render card content")
	}
	class := "card"
	switch cardType {
	case "warning":
		class += " warning-card"
	case "error":
		class += " error-card"
	case "success":
		class += " success-card"
	}
	return fmt.Sprintf(`<div class="%s">
  <div style="font-weight:bold; font-size:18px; margin-bottom:10px; color:%s">%s</div>
  %s
</div>`, class, p.Primary, html.EscapeString(title), content)
}

// ModernCard renders the hover-style card with an optional icon.
func ModernCard(p theme.Palette, title, content, cardType, icon string) string {
	if title == "" || content == "" {
		return `<div class="modern-card error"><div class="card-title">Error Rendering Card</div></div>`
	}
	class := "modern-card"
	switch cardType {
	case "warning", "error", "secondary", "accent":
		class += " " + cardType
	}
	iconHTML := ""
	if icon != "" {
		iconHTML = fmt.Sprintf(`<span style="margin-right: 8px;">%s</span>`, icon)
	}
	return fmt.Sprintf(`<div class="%s">
  <div style="display: flex; align-items: center; margin-bottom: 15px;">
    %s<span style="font-weight:bold; font-size:18px; color:%s">%s</span>
  </div>
  <div>%s</div>
</div>`, class, iconHTML, p.Primary, html.EscapeString(title), content)
}

// MetricCard renders a single labeled number.
func MetricCard(label string, value any, description, prefix, suffix string) string {
	if label == "" {
		return `<div class="modern-card error"><div class="metric-label">Error</div><div class="metric-value">N/A</div></div>`
	}
	return fmt.Sprintf(`<div class="modern-card">
  <div class="metric-label">%s</div>
  <div class="metric-value">%s%v%s</div>
  <div style="font-size:12px; opacity:0.7;">%s</div>
</div>`, html.EscapeString(label), prefix, value, suffix, html.EscapeString(description))
}

// Header renders the application banner.
func Header() string {
	return `<div style="display: flex; align-items: center; margin-bottom: 24px;">
  <div style="margin-right: 15px;">
    <svg width="38" height="38" viewBox="0 0 200 200" xmlns="http://www.w3.org/2000/svg">
      <path d="M100 10 L180 50 V120 C180 150 150 180 100 190 C50 180 20 150 20 120 V50 L100 10Z" fill="#003b7a" />
      <path d="M75 70 C95 70 110 125 140 110" stroke="white" stroke-width="15" fill="none" />
    </svg>
  </div>
  <div>
    <h1 style="margin:0; color:#003b7a;">ImpactGuard</h1>
    <p style="margin:0; font-size:14px;">AI Security &amp; Sustainability Hub</p>
  </div>
</div>`
}

// ErrorBanner renders the inline error display used instead of crashing a
// session.
func ErrorBanner(message string) string {
	if message == "" {
		return ""
	}
	return fmt.Sprintf(`<div class="error-message"><strong>Error:</strong> %s</div>`, html.EscapeString(message))
}

func errorCard(message string) string {
	return fmt.Sprintf(`<div class="card error-card">
  <div style="font-weight:bold; font-size:18px; margin-bottom:10px;">Error Rendering Card</div>
  <p>%s</p>
</div>`, html.EscapeString(message))
}
