package ui

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/oraig/impactguard/internal/session"
	"github.com/oraig/impactguard/internal/theme"
)

// RenderDocument assembles a full HTML page for the session's current view.
func RenderDocument(st *session.State, page string) string {
	pal := theme.Get(st.Theme())
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>ImpactGuard</title>")
	b.WriteString(theme.LoadCSS(st.Theme()))
	b.WriteString("</head><body><div class=\"main\">")
	b.WriteString(Header())
	b.WriteString(ErrorBanner(st.ErrorMessage()))
	b.WriteString(Sidebar(page))
	b.WriteString(RenderPage(st, pal, page))
	b.WriteString("</div></body></html>")
	return b.String()
}

// RenderPage routes a page name to its body. Unknown pages fall back to the
// dashboard.
func RenderPage(st *session.State, pal theme.Palette, page string) string {
	switch page {
	case "Dashboard":
		return renderDashboard(st, pal)
	case "Target Management":
		return renderTargets(st, pal)
	case "Test Configuration":
		return renderTestConfiguration(st, pal)
	case "Run Assessment":
		return renderRunAssessment(st, pal)
	case "Results Analyzer":
		return renderResults(st, pal)
	case "Report Generator":
		return renderReports(st, pal)
	case "Bias Testing", "Environmental Impact", "Citation Tool", "Insight Assistant", "Settings":
		return fmt.Sprintf("<h2>%s</h2><p>Use the JSON API for this page.</p>", html.EscapeString(page))
	default:
		slog.Warn("invalid page requested", "page", page)
		return renderDashboard(st, pal)
	}
}

func renderDashboard(st *session.State, pal theme.Palette) string {
	var b strings.Builder
	b.WriteString("<h2>Dashboard</h2><p>Welcome to ImpactGuard!</p>")
	b.WriteString(MetricCard("Targets", len(st.Targets()), "Configured AI models", "", ""))
	b.WriteString(MetricCard("Vulnerabilities Found", st.VulnerabilitiesFound(), "Current run", "", ""))
	if res := st.TestResults(); res != nil && !res.Error {
		b.WriteString(MetricCard("Risk Score", res.Summary.RiskScore, "Weighted severity sum", "", ""))
	}
	status := "Idle"
	if st.Running() {
		status = "Test Running"
	}
	b.WriteString(Card(pal, "System Status", fmt.Sprintf("<p>%s</p>", status), "default"))
	return b.String()
}

func renderTargets(st *session.State, pal theme.Palette) string {
	var b strings.Builder
	b.WriteString("<h2>Target Management</h2>")
	targets := st.Targets()
	if len(targets) == 0 {
		b.WriteString("<p>No targets configured yet.</p>")
		return b.String()
	}
	for _, t := range targets {
		content := fmt.Sprintf("<p>Endpoint: %s</p><p>%s</p>",
			html.EscapeString(t.Endpoint), html.EscapeString(t.Description))
		b.WriteString(Card(pal, t.Name, content, "default"))
	}
	return b.String()
}

func renderTestConfiguration(st *session.State, pal theme.Palette) string {
	var b strings.Builder
	b.WriteString("<h2>Test Configuration</h2>")
	b.WriteString(Card(pal, "Validation Strictness", fmt.Sprintf("<p>%d</p>", st.Strictness()), "default"))
	return b.String()
}

func renderRunAssessment(st *session.State, pal theme.Palette) string {
	var b strings.Builder
	b.WriteString("<h2>Run Assessment</h2>")
	if st.Running() {
		b.WriteString(fmt.Sprintf(`<progress value="%f" max="1"></progress>`, st.Progress()))
		b.WriteString(MetricCard("Progress", fmt.Sprintf("%.0f%%", st.Progress()*100), "", "", ""))
		b.WriteString(MetricCard("Vulnerabilities", st.VulnerabilitiesFound(), "found so far", "", ""))
	} else {
		b.WriteString(Card(pal, "Status", "<p>No assessment running.</p>", "default"))
	}
	return b.String()
}

func renderResults(st *session.State, pal theme.Palette) string {
	var b strings.Builder
	b.WriteString("<h2>Results Analyzer</h2>")
	res := st.TestResults()
	if res == nil {
		b.WriteString("<p>No results yet. Run an assessment first.</p>")
		return b.String()
	}
	if res.Error {
		b.WriteString(Card(pal, "Assessment Failed", "<p>"+html.EscapeString(res.ErrorMessage)+"</p>", "error"))
		return b.String()
	}
	b.WriteString(MetricCard("Total Tests", res.Summary.TotalTests, "", "", ""))
	b.WriteString(MetricCard("Vulnerabilities", res.Summary.VulnerabilitiesFound, "", "", ""))
	b.WriteString(MetricCard("Risk Score", res.Summary.RiskScore, "", "", ""))
	for _, v := range res.Vulnerabilities {
		cardType := "warning"
		if v.Severity == "critical" || v.Severity == "high" {
			cardType = "error"
		}
		content := fmt.Sprintf("<p>%s</p><p>Severity: %s</p>", html.EscapeString(v.Details), v.Severity)
		b.WriteString(Card(pal, fmt.Sprintf("%s - %s", v.ID, v.TestName), content, cardType))
	}
	return b.String()
}

func renderReports(st *session.State, pal theme.Palette) string {
	var b strings.Builder
	b.WriteString("<h2>Report Generator</h2>")
	reports := st.Reports()
	if len(reports) == 0 {
		b.WriteString("<p>No reports generated yet.</p>")
		return b.String()
	}
	for _, r := range reports {
		content := fmt.Sprintf("<p>%s</p><p>Recommendations: %d</p>", r.Date, len(r.Recommendations))
		b.WriteString(Card(pal, fmt.Sprintf("%s - %s", r.ID, r.Title), content, "default"))
	}
	return b.String()
}
