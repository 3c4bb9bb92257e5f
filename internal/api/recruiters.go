package api

import (
	"net/http"

	"github.com/jobtrack/jobtrack/internal/storage"
)

func handleListRecruiters(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recruiters, err := deps.Store.ListRecruiters()
		if err != nil {
			storageError(w, err, "recruiters")
			return
		}
		writeJSON(w, http.StatusOK, recruiters)
	}
}

func handleCreateRecruiter(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.Recruiter
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		rec, err := deps.Store.CreateRecruiter(req)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func handleGetRecruiter(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		rec, err := deps.Store.GetRecruiter(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleUpdateRecruiter(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.RecruiterPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if _, err := deps.Store.UpdateRecruiter(id, patch); err != nil {
			storageError(w, err, "recruiter")
			return
		}
		rec, err := deps.Store.GetRecruiter(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleRecruiterDashboard(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := deps.Store.RecruiterDashboard()
		if err != nil {
			storageError(w, err, "recruiter dashboard")
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

type setResumeRequest struct {
	ResumeVersionID *int64 `json:"resume_version_id"`
	SharingContext  string `json:"sharing_context"`
	Notes           string `json:"notes"`
}

func handleSetRecruiterResume(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req setResumeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := deps.Store.SetRecruiterResume(id, req.ResumeVersionID, req.SharingContext, req.Notes); err != nil {
			storageError(w, err, "recruiter resume")
			return
		}
		rec, err := deps.Store.GetRecruiter(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleRecruiterResumeShares(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		shares, err := deps.Store.RecruiterResumeShares(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, shares)
	}
}

func handleRecruiterCommunications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		comms, err := deps.Store.RecruiterCommunications(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, comms)
	}
}

func handleAddRecruiterCommunication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req storage.RecruiterCommunication
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CommunicationType == "" || req.Direction == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "communication_type and direction are required")
			return
		}
		req.RecruiterID = id
		c, err := deps.Store.AddRecruiterCommunication(req)
		if err != nil {
			storageError(w, err, "recruiter communication")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleRecruiterEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		events, err := deps.Store.RecruiterEvents(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func handleAddRecruiterEvent(deps Deps) http.HandlerFunc {
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
		e, err := deps.Store.AddRecruiterEvent(id, req)
		if err != nil {
			storageError(w, err, "recruiter event")
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func handleUpdateRecruiterEvent(deps Deps) http.HandlerFunc {
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
		ok, err := deps.Store.UpdateRecruiterEvent(eventID, patch)
		if err != nil {
			storageError(w, err, "recruiter event")
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "recruiter event not found or no fields set")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true})
	}
}

func handleDeleteRecruiterEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := idParam(r, "eventID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteRecruiterEvent(eventID); err != nil {
			storageError(w, err, "recruiter event")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRecruiterManagers(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		managers, err := deps.Store.RecruiterManagers(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, managers)
	}
}

func handleLinkRecruiterManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var req storage.RecruiterManager
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ManagerID == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "manager_id is required")
			return
		}
		link, err := deps.Store.LinkRecruiterManager(id, req)
		if err != nil {
			storageError(w, err, "recruiter manager link")
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

func handleUpdateRecruiterManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		linkID, err := idParam(r, "linkID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.RecruiterManagerPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		ok, err := deps.Store.UpdateRecruiterManager(linkID, patch)
		if err != nil {
			storageError(w, err, "recruiter manager link")
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "recruiter manager link not found or no fields set")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true})
	}
}

func handleUnlinkRecruiterManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		linkID, err := idParam(r, "linkID")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.UnlinkRecruiterManager(linkID); err != nil {
			storageError(w, err, "recruiter manager link")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRecruiterCompanies(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		companies, err := deps.Store.RecruiterCompanies(id)
		if err != nil {
			storageError(w, err, "recruiter")
			return
		}
		writeJSON(w, http.StatusOK, companies)
	}
}
