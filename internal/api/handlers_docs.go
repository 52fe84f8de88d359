package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/stationd/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments returns document metadata, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		jsonError(w, "list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.DocumentMeta{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleSaveDocument performs a full save. An empty id creates a new
// document; otherwise the existing one is overwritten and a history
// snapshot is taken.
func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var in store.SaveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := s.store.SaveDocument(r.Context(), in)
	if err != nil {
		storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleAutoSave overwrites the document body without bumping the
// version or snapshotting history.
func (s *Server) handleAutoSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var in store.SaveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	in.ID = chi.URLParam(r, "docID")

	if err := s.store.AutoSave(r.Context(), in); err != nil {
		storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"saved"}`))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handlePatchDocument updates workflow fields: status and project
// assignment. Absent fields are left alone; an empty project_id
// detaches the document.
func (s *Server) handlePatchDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var in struct {
		Status    *string `json:"status"`
		ProjectID *string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if in.Status == nil && in.ProjectID == nil {
		jsonError(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if in.Status != nil {
		if err := s.store.SetDocumentStatus(r.Context(), docID, *in.Status); err != nil {
			storeError(w, err)
			return
		}
	}
	if in.ProjectID != nil {
		if err := s.store.MoveDocumentToProject(r.Context(), docID, *in.ProjectID); err != nil {
			storeError(w, err)
			return
		}
	}

	doc, err := s.store.GetDocument(r.Context(), docID)
	if err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleDeleteDocument removes the document along with its versions,
// tags and scheduled posts.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDocument(r.Context(), chi.URLParam(r, "docID")); err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"deleted"}`))
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListVersions(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		jsonError(w, "list versions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if versions == nil {
		versions = []store.VersionMeta{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"versions": versions})
}

// handleRestoreVersion copies a history snapshot back onto the
// document and returns the restored state.
func (s *Server) handleRestoreVersion(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		jsonError(w, "invalid version number", http.StatusBadRequest)
		return
	}

	if err := s.store.RestoreVersion(r.Context(), docID, version); err != nil {
		storeError(w, err)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), docID)
	if err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.DocumentTags(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		jsonError(w, "list tags: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tags": tags})
}

func (s *Server) handleAddTags(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var in struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(in.Tags) == 0 {
		jsonError(w, "tags are required", http.StatusBadRequest)
		return
	}

	if err := s.store.AddDocumentTags(r.Context(), docID, in.Tags); err != nil {
		storeError(w, err)
		return
	}

	tags, err := s.store.DocumentTags(r.Context(), docID)
	if err != nil {
		jsonError(w, "list tags: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tags": tags})
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemoveDocumentTag(r.Context(), chi.URLParam(r, "docID"), chi.URLParam(r, "tag"))
	if err != nil {
		storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"removed"}`))
}

// storeError maps store failures onto HTTP status codes.
func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
