package api

import (
	"net/http"
	"strconv"

	"github.com/jobtrack/jobtrack/internal/storage"
)

func handleListApplications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := deps.Store.ActiveApplications()
		if err != nil {
			storageError(w, err, "applications")
			return
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func handleCreateApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.Application
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CompanyID == 0 || req.PositionTitle == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "company_id and position_title are required")
			return
		}
		a, err := deps.Store.CreateApplication(req)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func handleGetApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		d, err := deps.Store.GetApplicationDetails(id)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleUpdateApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.ApplicationPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if _, err := deps.Store.UpdateApplication(id, patch); err != nil {
			storageError(w, err, "application")
			return
		}
		a, err := deps.Store.GetApplication(id)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleDeleteApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteApplication(id); err != nil {
			storageError(w, err, "application")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func handleSetApplicationStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Status == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "status is required")
			return
		}
		if err := deps.Store.SetApplicationStatus(id, req.Status, req.Notes); err != nil {
			storageError(w, err, "application")
			return
		}
		a, err := deps.Store.GetApplication(id)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

type applicationResumeRequest struct {
	ResumeVersionID *int64 `json:"resume_version_id"`
}

func handleSetApplicationResume(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req applicationResumeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := deps.Store.SetApplicationResume(id, req.ResumeVersionID); err != nil {
			storageError(w, err, "application resume")
			return
		}
		a, err := deps.Store.GetApplication(id)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleSearchApplications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		if company == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "company query parameter is required")
			return
		}
		apps, err := deps.Store.SearchApplicationsByCompany(company)
		if err != nil {
			storageError(w, err, "applications")
			return
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func handleUpcomingFollowUps(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid days %q", raw)
				return
			}
			days = n
		}
		ups, err := deps.Store.UpcomingFollowUps(days)
		if err != nil {
			storageError(w, err, "follow-ups")
			return
		}
		writeJSON(w, http.StatusOK, ups)
	}
}

func handleApplicationEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		events, err := deps.Store.ApplicationEvents(id)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func handleAddApplicationEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req storage.ApplicationEvent
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.EventType == "" || req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "event_type and title are required")
			return
		}
		e, err := deps.Store.AddApplicationEvent(id, req)
		if err != nil {
			storageError(w, err, "application event")
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func handleUpdateApplicationEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := idParam(r, "eventID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.ApplicationEventPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		ok, err := deps.Store.UpdateApplicationEvent(eventID, patch)
		if err != nil {
			storageError(w, err, "application event")
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "application event not found or no fields set")
			return
		}
		e, err := deps.Store.GetApplicationEvent(eventID)
		if err != nil {
			storageError(w, err, "application event")
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleDeleteApplicationEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := idParam(r, "eventID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteApplicationEvent(eventID); err != nil {
			storageError(w, err, "application event")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleApplicationCommunications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		comms, err := deps.Store.ApplicationCommunications(id)
		if err != nil {
			storageError(w, err, "application")
			return
		}
		writeJSON(w, http.StatusOK, comms)
	}
}

func handleAddCommunication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req storage.Communication
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CommunicationType == "" || req.Direction == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "communication_type and direction are required")
			return
		}
		req.ApplicationID = id
		c, err := deps.Store.AddCommunication(req)
		if err != nil {
			storageError(w, err, "communication")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}
