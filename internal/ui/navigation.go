package ui

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// NavItem is one sidebar entry.
type NavItem struct {
	Icon string `json:"icon"`
	Name string `json:"name"`
}

// NavCategory groups sidebar entries.
type NavCategory struct {
	Category string    `json:"category"`
	Items    []NavItem `json:"items"`
}

// Categories returns the sidebar navigation catalog in display order.
func Categories() []NavCategory {
	return []NavCategory{
		{Category: "Core Security", Items: []NavItem{
			{Icon: "🏠", Name: "Dashboard"},
			{Icon: "🎯", Name: "Target Management"},
			{Icon: "🧪", Name: "Test Configuration"},
			{Icon: "▶️", Name: "Run Assessment"},
			{Icon: "📊", Name: "Results Analyzer"},
		}},
		{Category: "AI Ethics & Bias", Items: []NavItem{
			{Icon: "⚖️", Name: "Bias Testing"},
		}},
		{Category: "Sustainability", Items: []NavItem{
			{Icon: "🌱", Name: "Environmental Impact"},
		}},
		{Category: "Reports & Knowledge", Items: []NavItem{
			{Icon: "📝", Name: "Report Generator"},
			{Icon: "📚", Name: "Citation Tool"},
			{Icon: "💡", Name: "Insight Assistant"},
		}},
		{Category: "System", Items: []NavItem{
			{Icon: "⚙️", Name: "Settings"},
		}},
	}
}

// KnownPage reports whether a page name exists in the navigation catalog.
func KnownPage(name string) bool {
	for _, cat := range Categories() {
		for _, item := range cat.Items {
			if item.Name == name {
				return true
			}
		}
	}
	return false
}

// Sidebar renders the navigation menu.
func Sidebar(currentPage string) string {
	var b strings.Builder
	b.WriteString(`<div style="padding:1rem; border-bottom:1px solid #ccc;"><h2>ImpactGuard</h2><p>by ORAIG</p></div>`)
	for _, cat := range Categories() {
		fmt.Fprintf(&b, `<div class="nav-category">%s</div>`, html.EscapeString(cat.Category))
		for _, item := range cat.Items {
			marker := ""
			if item.Name == currentPage {
				marker = ` style="font-weight:bold;"`
			}
			fmt.Fprintf(&b, `<div%s><a href="/pages/%s">%s %s</a></div>`, marker, url.PathEscape(item.Name), item.Icon, html.EscapeString(item.Name))
		}
	}
	return b.String()
}
