package api

import (
	"net/http"
	"strconv"
)

func handleDashboardStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Store.GetDashboardStats()
		if err != nil {
			storageError(w, err, "dashboard stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleRecentActivity(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", raw)
				return
			}
			limit = n
		}
		items, err := deps.Store.RecentActivity(limit)
		if err != nil {
			storageError(w, err, "recent activity")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}
