package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgallion1/stationd/internal/store"
)

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}

	entries, err := s.store.RecentActivity(r.Context(), limit)
	if err != nil {
		jsonError(w, "list activity: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.Activity{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"activity": entries})
}
