package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codetrack-backend/services/auth"
	"codetrack-backend/services/snapshots"
	"codetrack-backend/services/tracker"
	"codetrack-backend/services/tracker/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tracker/server")

// SnapshotSource serves the stored rating time series. Optional; a nil
// source disables the snapshots endpoint.
type SnapshotSource interface {
	Pull(ctx context.Context, studentID string) ([]snapshots.PlatformSeries, error)
}

type Server struct {
	service   *tracker.Service
	verifier  *auth.Verifier
	snapshots SnapshotSource
}

func NewServer(service *tracker.Service, verifier *auth.Verifier, snapshots SnapshotSource) *Server {
	return &Server{
		service:   service,
		verifier:  verifier,
		snapshots: snapshots,
	}
}

// Register mounts the dashboard-facing routes. Every route is
// identity-bound: callers can only read and refresh their own record.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/students/me", s.withAuth(s.handleGetMe))
	mux.HandleFunc("GET /api/v1/students/me/snapshots", s.withAuth(s.handleGetSnapshots))
	mux.HandleFunc("POST /api/v1/students/{id}/refresh", s.withAuth(s.handleRefresh))
	mux.HandleFunc("POST /api/v1/students/{id}/refresh/{platform}", s.withAuth(s.handleRefreshPlatform))
}

// envelope is the wire shape every endpoint responds with. Success
// reports whether the request itself completed; per-platform outcomes
// live in ScrapingResults and a failed platform does not flip Success.
type envelope struct {
	Success         bool                    `json:"success"`
	Data            any                     `json:"data,omitempty"`
	ScrapingResults *tracker.RefreshSummary `json:"scrapingResults,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "err", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, envelope{Success: false, Error: message})
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, identity auth.Identity)

func (s *Server) withAuth(next handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(r.Context(), w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		identity, err := s.verifier.Verify(token)
		if err != nil {
			writeError(r.Context(), w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r, identity)
	}
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	ctx, span := tracer.Start(r.Context(), "handleGetMe")
	defer span.End()

	record, err := s.service.GetStudent(ctx, identity.StudentID)
	if err != nil {
		span.RecordError(err)
		writeLookupError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, envelope{Success: true, Data: record})
}

func (s *Server) handleGetSnapshots(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	ctx, span := tracer.Start(r.Context(), "handleGetSnapshots")
	defer span.End()

	if s.snapshots == nil {
		writeError(ctx, w, http.StatusNotFound, "snapshots are not enabled")
		return
	}
	series, err := s.snapshots.Pull(ctx, identity.StudentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(ctx, w, http.StatusInternalServerError, "failed to load snapshots")
		return
	}
	writeJSON(ctx, w, http.StatusOK, envelope{Success: true, Data: series})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	ctx, span := tracer.Start(r.Context(), "handleRefresh")
	defer span.End()

	id := r.PathValue("id")
	// identity check runs before any scraping work
	if id != identity.StudentID {
		span.SetStatus(codes.Error, "identity mismatch")
		writeError(ctx, w, http.StatusForbidden, "you can only refresh your own record")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	span.SetAttributes(attribute.Bool("force", force))

	summary, err := s.service.RefreshStudent(ctx, id, force)
	if err != nil && !errors.Is(err, tracker.ErrNotDue) {
		span.RecordError(err)
	}
	writeRefreshResult(ctx, w, summary, err)
}

func (s *Server) handleRefreshPlatform(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	ctx, span := tracer.Start(r.Context(), "handleRefreshPlatform")
	defer span.End()

	id := r.PathValue("id")
	if id != identity.StudentID {
		span.SetStatus(codes.Error, "identity mismatch")
		writeError(ctx, w, http.StatusForbidden, "you can only refresh your own record")
		return
	}

	platform, err := store.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.String("platform", string(platform)))

	force := r.URL.Query().Get("force") == "true"
	summary, err := s.service.RefreshPlatform(ctx, id, platform, force)
	if err != nil && !errors.Is(err, tracker.ErrNotDue) {
		span.RecordError(err)
	}
	writeRefreshResult(ctx, w, summary, err)
}

func writeRefreshResult(ctx context.Context, w http.ResponseWriter, summary tracker.RefreshSummary, err error) {
	if errors.Is(err, tracker.ErrNotDue) {
		writeJSON(ctx, w, http.StatusOK, envelope{
			Success: true,
			Data:    map[string]any{"refreshed": false, "reason": "record is still fresh"},
		})
		return
	}
	if err != nil {
		writeLookupError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, envelope{
		Success:         true,
		Data:            map[string]any{"refreshed": true},
		ScrapingResults: &summary,
	})
}

func writeLookupError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(ctx, w, http.StatusNotFound, "student record not found")
		return
	}
	slog.ErrorContext(ctx, "request failed", "err", err)
	writeError(ctx, w, http.StatusInternalServerError, err.Error())
}
