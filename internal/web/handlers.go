package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/rawready/internal/checks"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/logging"
	"github.com/JonMunkholm/rawready/internal/report"
	"github.com/JonMunkholm/rawready/internal/rules"
)

// BannerResponse is returned by GET /.
type BannerResponse struct {
	Status       string    `json:"status"`
	Service      string    `json:"service"`
	Message      string    `json:"message"`
	TimestampUTC time.Time `json:"timestamp_utc"`
}

// FilesResponse is returned by GET /api/raw/dashboard/files.
type FilesResponse struct {
	Summary report.Summary      `json:"summary"`
	Files   []*core.FileProfile `json:"files"`
}

// ChecksResponse is returned by GET /api/raw/dashboard/prd-checks.
type ChecksResponse struct {
	Summary report.Summary  `json:"summary"`
	Checks  []checks.Result `json:"checks"`
}

// RulesResponse is returned by GET /api/raw/dashboard/rules.
type RulesResponse struct {
	Rules          []rules.Definition `json:"rules"`
	SupportedTypes []string           `json:"supported_types"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, BannerResponse{
		Status:       "online",
		Service:      ServiceName,
		Message:      "Service is running",
		TimestampUTC: time.Now().UTC(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ov, ok := s.overview(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, ov)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	ov, ok := s.overview(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, FilesResponse{Summary: ov.Summary, Files: ov.Files})
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	ov, ok := s.overview(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, ChecksResponse{Summary: ov.Summary, Checks: ov.Checks})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	set, err := s.builder.Rules()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defs := set.All()
	if defs == nil {
		defs = []rules.Definition{}
	}
	render.JSON(w, r, RulesResponse{Rules: defs, SupportedTypes: checks.Types()})
}

// handlePreview serves a bounded sample of one file. rows defaults to 20
// and must lie in [1, 200].
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ref, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: malformed path", core.ErrNotFound))
		return
	}

	rows := core.DefaultPreviewRows
	if raw := r.URL.Query().Get("rows"); raw != "" {
		rows, err = strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: rows must be an integer", core.ErrInvalidParameter))
			return
		}
	}

	preview, err := s.builder.Sandbox().Preview(ref, rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Debug("preview served",
		"file", preview.FileName,
		"rows", rows,
	)
	render.JSON(w, r, preview)
}

// overview runs one full scan behind the scan limiter. On failure it writes
// the error response and returns false.
func (s *Server) overview(w http.ResponseWriter, r *http.Request) (*report.Overview, bool) {
	if !s.limiter.TryAcquire() {
		status := s.limiter.Status()
		logging.FromContext(r.Context()).Info("scan queued",
			"active", status.Active,
			"max_concurrent", status.MaxConcurrent,
		)
		if err := s.limiter.Acquire(r.Context()); err != nil {
			s.respondError(w, r, err)
			return nil, false
		}
	}
	defer s.limiter.Release()

	ov, err := s.builder.Build(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	if ov.Files == nil {
		ov.Files = []*core.FileProfile{}
	}
	if ov.Checks == nil {
		ov.Checks = []checks.Result{}
	}
	return ov, true
}
