package api

import (
	"net/http"
	"time"
)

func handleListFiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objects, err := deps.Blob.List(r.Context(), r.URL.Query().Get("prefix"))
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "listing files: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"storage": deps.Blob.Info(),
			"objects": objects,
		})
	}
}

type downloadURLRequest struct {
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

func handleDownloadURL(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downloadURLRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Key == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "key is required")
			return
		}
		if req.ExpiresIn <= 0 {
			req.ExpiresIn = 3600
		}
		url, err := deps.Blob.DownloadURL(r.Context(), req.Key, time.Duration(req.ExpiresIn)*time.Second)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "presigning download: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"url":        url,
			"expires_in": req.ExpiresIn,
		})
	}
}
