package reports

import (
	"fmt"
	"time"

	"github.com/oraig/impactguard/internal/domain/assessments"
	"github.com/oraig/impactguard/internal/domain/bias"
	"github.com/oraig/impactguard/internal/domain/carbon"
)

// Recommendation is one actionable item in a combined report.
type Recommendation struct {
	Area           string `json:"area"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
	Details        string `json:"details"`
}

// Report combines security, bias and sustainability results for one target
// review cycle. Owned by session state; archived externally only on request.
type Report struct {
	ID              string                         `json:"id"`
	Title           string                         `json:"title"`
	Date            string                         `json:"date"`
	Security        *assessments.Result            `json:"security"`
	Bias            map[string]bias.FeatureMetrics `json:"bias"`
	Sustainability  *carbon.Report                 `json:"sustainability"`
	Recommendations []Recommendation               `json:"recommendations"`
}

// Build assembles a combined report. Nil sections are replaced with empty
// placeholders so the report shape stays stable for consumers.
func Build(now time.Time, title string, security *assessments.Result, biasMetrics map[string]bias.FeatureMetrics, sustainability *carbon.Report, includeRecommendations bool) *Report {
	if title == "" {
		title = "Security Assessment Report"
	}
	if security == nil {
		security = &assessments.Result{Vulnerabilities: []assessments.Vulnerability{}}
	}
	if biasMetrics == nil {
		biasMetrics = map[string]bias.FeatureMetrics{}
	}

	r := &Report{
		ID:              fmt.Sprintf("REP-%d", now.Unix()),
		Title:           title,
		Date:            now.Format("2006-01-02 15:04:05"),
		Security:        security,
		Bias:            biasMetrics,
		Sustainability:  sustainability,
		Recommendations: []Recommendation{},
	}
	if includeRecommendations {
		r.Recommendations = recommendations(security, biasMetrics, sustainability)
	}
	return r
}

func recommendations(security *assessments.Result, biasMetrics map[string]bias.FeatureMetrics, sustainability *carbon.Report) []Recommendation {
	recs := []Recommendation{}

	// top three vulnerabilities by discovery order
	vulns := security.Vulnerabilities
	if len(vulns) > 3 {
		vulns = vulns[:3]
	}
	for _, v := range vulns {
		severity := string(v.Severity)
		if severity == "" {
			severity = "medium"
		}
		recs = append(recs, Recommendation{
			Area:           "security",
			Severity:       severity,
			Recommendation: fmt.Sprintf("Address %s issue.", v.TestName),
			Details:        v.Details,
		})
	}

	for feature, metrics := range biasMetrics {
		if metrics.MaxDisparity <= 0.1 {
			continue
		}
		severity := "medium"
		if metrics.MaxDisparity > 0.2 {
			severity = "high"
		}
		recs = append(recs, Recommendation{
			Area:           "bias",
			Severity:       severity,
			Recommendation: fmt.Sprintf("Address bias in %s attribute.", feature),
			Details:        fmt.Sprintf("Disparity of %.2f detected in %s.", metrics.MaxDisparity, feature),
		})
	}

	if sustainability != nil && sustainability.TotalEmissionsKg > 1.0 {
		recs = append(recs, Recommendation{
			Area:           "sustainability",
			Severity:       "medium",
			Recommendation: "Optimize model size and deployment to reduce carbon footprint.",
			Details:        fmt.Sprintf("Current emissions of %.2f kg CO2e could be reduced with efficiency improvements.", sustainability.TotalEmissionsKg),
		})
	}
	return recs
}
