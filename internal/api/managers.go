package api

import (
	"net/http"
	"strconv"

	"github.com/jobtrack/jobtrack/internal/storage"
)

func handleListManagers(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var companyID *int64
		if raw := r.URL.Query().Get("company_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid company_id %q", raw)
				return
			}
			companyID = &id
		}
		managers, err := deps.Store.ListManagers(companyID)
		if err != nil {
			storageError(w, err, "managers")
			return
		}
		writeJSON(w, http.StatusOK, managers)
	}
}

func handleCreateManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.Manager
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		m, err := deps.Store.CreateManager(req)
		if err != nil {
			storageError(w, err, "manager")
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func handleGetManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		m, err := deps.Store.GetManager(id)
		if err != nil {
			storageError(w, err, "manager")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func handleUpdateManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.ManagerPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if _, err := deps.Store.UpdateManager(id, patch); err != nil {
			storageError(w, err, "manager")
			return
		}
		m, err := deps.Store.GetManager(id)
		if err != nil {
			storageError(w, err, "manager")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func handleDeleteManager(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteManager(id); err != nil {
			storageError(w, err, "manager")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleManagerRecruiters(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		recruiters, err := deps.Store.ManagerRecruiters(id)
		if err != nil {
			storageError(w, err, "manager")
			return
		}
		writeJSON(w, http.StatusOK, recruiters)
	}
}
