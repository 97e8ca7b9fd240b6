package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oraig/impactguard/internal/application"
	"github.com/oraig/impactguard/internal/domain/carbon"
	domain "github.com/oraig/impactguard/internal/domain/reports"
	"github.com/oraig/impactguard/internal/session"
)

// Service assembles combined reports from whatever the session has gathered.
type Service struct {
	Clock   application.Clock
	Archive domain.ArchiveStore // nil when no external store is configured
}

// Build creates a combined report from the session's current security, bias
// and sustainability results, appends it to the session, and archives it
// best-effort when an archive is configured. Archive failures never fail the
// report; they are logged and the in-memory copy stands.
func (s *Service) Build(ctx context.Context, st *session.State, title string, includeRecommendations bool) *domain.Report {
	var sustainability *carbon.Report
	if tr := st.Carbon(); tr != nil && len(tr.Measurements()) > 0 {
		r := tr.GenerateReport()
		sustainability = &r
	}

	rep := domain.Build(s.Clock.Now(), title, st.TestResults(), st.BiasResults(), sustainability, includeRecommendations)
	st.AddReport(rep)

	if s.Archive != nil {
		doc, err := json.Marshal(rep)
		if err != nil {
			slog.Warn("report archive skipped", "report", rep.ID, "err", err)
			return rep
		}
		key := fmt.Sprintf("%s/%s.json", st.ID, rep.ID)
		url, err := s.Archive.Put(ctx, key, doc)
		if err != nil {
			slog.Warn("report archive failed", "report", rep.ID, "err", err)
		} else {
			slog.Info("report archived", "report", rep.ID, "url", url)
		}
	}
	return rep
}
