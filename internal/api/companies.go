package api

import (
	"net/http"

	"github.com/jobtrack/jobtrack/internal/storage"
)

func handleListCompanies(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := deps.Store.CompanyActivity()
		if err != nil {
			storageError(w, err, "companies")
			return
		}
		writeJSON(w, http.StatusOK, companies)
	}
}

func handleCreateCompany(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.Company
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		c, err := deps.Store.CreateCompany(req)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleGetCompany(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		c, err := deps.Store.GetCompany(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleSearchCompanies(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name query parameter is required")
			return
		}
		c, err := deps.Store.FindCompanyByName(name)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleUpdateCompany(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.CompanyPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if _, err := deps.Store.UpdateCompany(id, patch); err != nil {
			storageError(w, err, "company")
			return
		}
		// A no-op patch against a missing id surfaces here as ErrNotFound.
		c, err := deps.Store.GetCompany(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleDeleteCompany(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteCompany(id); err != nil {
			storageError(w, err, "company")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCompanyDetails(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		d, err := deps.Store.GetCompanyDetails(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleCompanyPostings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		postings, err := deps.Store.CompanyJobPostings(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, postings)
	}
}

func handleCompanyApplications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		apps, err := deps.Store.CompanyApplications(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func handleCompanyStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		stats, err := deps.Store.GetCompanyStats(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleCompanyEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		events, err := deps.Store.CompanyEvents(id)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func handleAddCompanyEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req storage.TimelineEvent
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Title == "" || req.EventDate == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title and event_date are required")
			return
		}
		if req.EventType == "" {
			req.EventType = "note"
		}
		e, err := deps.Store.AddCompanyEvent(id, req)
		if err != nil {
			storageError(w, err, "company event")
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func handleUpdateCompanyEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := idParam(r, "eventID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.TimelineEventPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		ok, err := deps.Store.UpdateCompanyEvent(eventID, patch)
		if err != nil {
			storageError(w, err, "company event")
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "company event not found or no fields set")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true})
	}
}

func handleDeleteCompanyEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := idParam(r, "eventID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteCompanyEvent(eventID); err != nil {
			storageError(w, err, "company event")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCompanyRecruiters(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		activeOnly := r.URL.Query().Get("active") == "true"
		list, err := deps.Store.CompanyRecruiters(id, activeOnly)
		if err != nil {
			storageError(w, err, "company")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleAssociateRecruiter(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req storage.CompanyRecruiter
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.RecruiterID == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "recruiter_id is required")
			return
		}
		cr, err := deps.Store.AssociateRecruiter(id, req)
		if err != nil {
			storageError(w, err, "company recruiter association")
			return
		}
		writeJSON(w, http.StatusCreated, cr)
	}
}

func handleDeactivateCompanyRecruiter(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		recruiterID, err := idParam(r, "recruiterID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeactivateCompanyRecruiter(id, recruiterID); err != nil {
			storageError(w, err, "company recruiter association")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
