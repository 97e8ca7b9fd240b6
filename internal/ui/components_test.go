package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oraig/impactguard/internal/theme"
)

var pal = theme.Get("dark")

func TestCard(t *testing.T) {
	t.Run("renders title and content", func(t *testing.T) {
		got := Card(pal, "Status", "<p>ok</p>", "default")
		assert.Contains(t, got, "Status")
		assert.Contains(t, got, "<p>ok</p>")
		assert.Contains(t, got, `class="card"`)
	})

	t.Run("card type selects the accent class", func(t *testing.T) {
		assert.Contains(t, Card(pal, "t", "c", "warning"), "warning-card")
		assert.Contains(t, Card(pal, "t", "c", "error"), "error-card")
	})

	t.Run("empty input renders an error placeholder instead of failing", func(t *testing.T) {
		assert.Contains(t, Card(pal, "", "c", "default"), "Failed to render card content")
		assert.Contains(t, Card(pal, "t", "", "default"), "Failed to render card content")
	})

	t.Run("title is escaped", func(t *testing.T) {
		got := Card(pal, "<script>x</script>", "c", "default")
		assert.NotContains(t, got, "<script>")
	})
}

func TestModernCard(t *testing.T) {
	got := ModernCard(pal, "Metric", "body", "accent", "🔒")
	assert.Contains(t, got, "modern-card accent")
	assert.Contains(t, got, "🔒")

	broken := ModernCard(pal, "", "", "default", "")
	assert.Contains(t, broken, "Error Rendering Card")
}

func TestMetricCard(t *testing.T) {
	got := MetricCard("Targets", 3, "Configured AI models", "", "")
	assert.Contains(t, got, "Targets")
	assert.Contains(t, got, ">3<")

	assert.Contains(t, MetricCard("", 3, "", "", ""), "N/A")
}

func TestErrorBanner(t *testing.T) {
	assert.Empty(t, ErrorBanner(""))
	got := ErrorBanner("something broke")
	assert.Contains(t, got, "something broke")
	assert.Contains(t, got, "error-message")
}

func TestNavigation(t *testing.T) {
	t.Run("catalog covers all pages", func(t *testing.T) {
		pages := []string{
			"Dashboard", "Target Management", "Test Configuration",
			"Run Assessment", "Results Analyzer", "Bias Testing",
			"Environmental Impact", "Report Generator", "Citation Tool",
			"Insight Assistant", "Settings",
		}
		for _, p := range pages {
			assert.True(t, KnownPage(p), p)
		}
		assert.False(t, KnownPage("Nonexistent"))
	})

	t.Run("sidebar marks the current page", func(t *testing.T) {
		got := Sidebar("Dashboard")
		assert.Contains(t, got, "font-weight:bold")
		assert.Contains(t, got, "ImpactGuard")
	})

	t.Run("sidebar links escape page names", func(t *testing.T) {
		got := Sidebar("Dashboard")
		assert.Contains(t, got, `href="/pages/Target%20Management"`)
		assert.NotContains(t, got, `href="/pages/Target Management"`)
	})
}
