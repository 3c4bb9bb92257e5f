// Package api exposes the tracker over REST. All routes live under /api
// and speak JSON; storage errors map to 404 (missing rows) or 400
// (constraint violations).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jobtrack/jobtrack/internal/blob"
	"github.com/jobtrack/jobtrack/internal/storage"
)

type Deps struct {
	Store *storage.Store
	Blob  *blob.Bucket
	Log   *slog.Logger
}

// NewHandler builds the full API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth(deps))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth(deps))

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", handleListCompanies(deps))
			r.Post("/", handleCreateCompany(deps))
			r.Get("/search", handleSearchCompanies(deps))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handleGetCompany(deps))
				r.Put("/", handleUpdateCompany(deps))
				r.Delete("/", handleDeleteCompany(deps))
				r.Get("/details", handleCompanyDetails(deps))
				r.Get("/postings", handleCompanyPostings(deps))
				r.Get("/applications", handleCompanyApplications(deps))
				r.Get("/stats", handleCompanyStats(deps))
				r.Get("/events", handleCompanyEvents(deps))
				r.Post("/events", handleAddCompanyEvent(deps))
				r.Put("/events/{eventID}", handleUpdateCompanyEvent(deps))
				r.Delete("/events/{eventID}", handleDeleteCompanyEvent(deps))
				r.Get("/recruiters", handleCompanyRecruiters(deps))
				r.Post("/recruiters", handleAssociateRecruiter(deps))
				r.Delete("/recruiters/{recruiterID}", handleDeactivateCompanyRecruiter(deps))
			})
		})

		r.Route("/resume-versions", func(r chi.Router) {
			r.Get("/", handleListResumeVersions(deps))
			r.Post("/", handleCreateResumeVersion(deps))
			r.Get("/success-metrics", handleResumeSuccessMetrics(deps))
			r.Get("/search", handleSearchResumesByTags(deps))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handleGetResumeVersion(deps))
				r.Put("/", handleUpdateResumeVersion(deps))
				r.Get("/tags", handleResumeTags(deps))
				r.Put("/tags", handleSetResumeTags(deps))
				r.Post("/tags", handleAddResumeTags(deps))
				r.Delete("/tags/{tagID}", handleRemoveResumeTag(deps))
			})
		})

		r.Route("/recruiters", func(r chi.Router) {
			r.Get("/", handleListRecruiters(deps))
			r.Post("/", handleCreateRecruiter(deps))
			r.Get("/dashboard", handleRecruiterDashboard(deps))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handleGetRecruiter(deps))
				r.Put("/", handleUpdateRecruiter(deps))
				r.Put("/resume", handleSetRecruiterResume(deps))
				r.Get("/resume-shares", handleRecruiterResumeShares(deps))
				r.Get("/communications", handleRecruiterCommunications(deps))
				r.Post("/communications", handleAddRecruiterCommunication(deps))
				r.Get("/events", handleRecruiterEvents(deps))
				r.Post("/events", handleAddRecruiterEvent(deps))
				r.Put("/events/{eventID}", handleUpdateRecruiterEvent(deps))
				r.Delete("/events/{eventID}", handleDeleteRecruiterEvent(deps))
				r.Get("/managers", handleRecruiterManagers(deps))
				r.Post("/managers", handleLinkRecruiterManager(deps))
				r.Put("/managers/{linkID}", handleUpdateRecruiterManager(deps))
				r.Delete("/managers/{linkID}", handleUnlinkRecruiterManager(deps))
				r.Get("/companies", handleRecruiterCompanies(deps))
			})
		})

		r.Route("/managers", func(r chi.Router) {
			r.Get("/", handleListManagers(deps))
			r.Post("/", handleCreateManager(deps))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handleGetManager(deps))
				r.Put("/", handleUpdateManager(deps))
				r.Delete("/", handleDeleteManager(deps))
				r.Get("/recruiters", handleManagerRecruiters(deps))
			})
		})

		r.Route("/job-postings", func(r chi.Router) {
			r.Get("/", handleListJobPostings(deps))
			r.Post("/", handleCreateJobPosting(deps))
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", handleListApplications(deps))
			r.Post("/", handleCreateApplication(deps))
			r.Get("/search", handleSearchApplications(deps))
			r.Get("/follow-ups", handleUpcomingFollowUps(deps))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handleGetApplication(deps))
				r.Put("/", handleUpdateApplication(deps))
				r.Delete("/", handleDeleteApplication(deps))
				r.Put("/status", handleSetApplicationStatus(deps))
				r.Put("/resume", handleSetApplicationResume(deps))
				r.Get("/events", handleApplicationEvents(deps))
				r.Post("/events", handleAddApplicationEvent(deps))
				r.Put("/events/{eventID}", handleUpdateApplicationEvent(deps))
				r.Delete("/events/{eventID}", handleDeleteApplicationEvent(deps))
				r.Get("/communications", handleApplicationCommunications(deps))
				r.Post("/communications", handleAddCommunication(deps))
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", handleListTags(deps))
			r.Post("/", handleCreateTag(deps))
			r.Get("/{id}", handleGetTag(deps))
			r.Put("/{id}", handleUpdateTag(deps))
			r.Delete("/{id}", handleDeleteTag(deps))
		})

		r.Get("/files", handleListFiles(deps))
		r.Post("/files/download-url", handleDownloadURL(deps))

		r.Get("/dashboard/stats", handleDashboardStats(deps))
		r.Get("/dashboard/recent-activity", handleRecentActivity(deps))
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"blob":   deps.Blob.Info(),
		})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// storageError translates storage sentinels into response codes.
func storageError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%s not found", what)
	case errors.Is(err, storage.ErrConstraint):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s: %v", what, err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", what, err)
	}
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}
