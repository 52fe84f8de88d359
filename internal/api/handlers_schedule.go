package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgallion1/stationd/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleSchedulePost queues the document for publication and flips its
// status to scheduled.
func (s *Server) handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Platform      string    `json:"platform"`
		AccountID     string    `json:"account_id"`
		PublicationID string    `json:"publication_id"`
		Title         string    `json:"title"`
		ScheduledAt   time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if in.Platform == "" {
		jsonError(w, "platform is required", http.StatusBadRequest)
		return
	}
	if in.ScheduledAt.IsZero() {
		jsonError(w, "scheduled_at is required", http.StatusBadRequest)
		return
	}

	post, err := s.store.SchedulePost(r.Context(), store.ScheduleInput{
		DocumentID:    chi.URLParam(r, "docID"),
		Platform:      in.Platform,
		AccountID:     in.AccountID,
		PublicationID: in.PublicationID,
		Title:         in.Title,
		ScheduledAt:   in.ScheduledAt,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}

// handleListSchedule lists posts in scheduled order. Optional query
// parameters: from, to (RFC 3339) and status.
func (s *Server) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	var f store.ScheduleFilter
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, "invalid from: "+err.Error(), http.StatusBadRequest)
			return
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, "invalid to: "+err.Error(), http.StatusBadRequest)
			return
		}
		f.To = t
	}
	f.Status = q.Get("status")

	posts, err := s.store.ListScheduledPosts(r.Context(), f)
	if err != nil {
		jsonError(w, "list schedule: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []store.ScheduledPost{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"posts": posts})
}

// handleCancelPost removes a pending post and puts its document back in
// draft.
func (s *Server) handleCancelPost(w http.ResponseWriter, r *http.Request) {
	if err := s.store.CancelScheduledPost(r.Context(), chi.URLParam(r, "postID")); err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"cancelled"}`))
}

// handleReschedulePost moves the post to a new time and resets it to
// pending, clearing any previous failure.
func (s *Server) handleReschedulePost(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if in.ScheduledAt.IsZero() {
		jsonError(w, "scheduled_at is required", http.StatusBadRequest)
		return
	}

	if err := s.store.ReschedulePost(r.Context(), chi.URLParam(r, "postID"), in.ScheduledAt); err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"rescheduled"}`))
}
