package api

import (
	"net/http"

	"github.com/jobtrack/jobtrack/internal/storage"
)

func handleListJobPostings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postings, err := deps.Store.ListJobPostings()
		if err != nil {
			storageError(w, err, "job postings")
			return
		}
		writeJSON(w, http.StatusOK, postings)
	}
}

func handleCreateJobPosting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.JobPosting
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CompanyID == 0 || req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "company_id and title are required")
			return
		}
		p, err := deps.Store.CreateJobPosting(req)
		if err != nil {
			storageError(w, err, "job posting")
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}
