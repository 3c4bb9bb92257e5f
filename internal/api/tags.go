package api

import (
	"net/http"

	"github.com/jobtrack/jobtrack/internal/storage"
)

func handleListTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := deps.Store.ListTags()
		if err != nil {
			storageError(w, err, "tags")
			return
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func handleCreateTag(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.Tag
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		t, err := deps.Store.CreateTag(req)
		if err != nil {
			storageError(w, err, "tag")
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func handleGetTag(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		t, err := deps.Store.GetTag(id)
		if err != nil {
			storageError(w, err, "tag")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleUpdateTag(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var patch storage.TagPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if _, err := deps.Store.UpdateTag(id, patch); err != nil {
			storageError(w, err, "tag")
			return
		}
		t, err := deps.Store.GetTag(id)
		if err != nil {
			storageError(w, err, "tag")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleDeleteTag(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteTag(id); err != nil {
			storageError(w, err, "tag")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
