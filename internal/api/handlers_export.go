package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/stationd/internal/export"
	"github.com/go-chi/chi/v5"
)

// handleExport renders a document supplied in the request body. Nothing
// is persisted; the response is the file itself.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var in struct {
		Title  string `json:"title"`
		Markup string `json:"markup"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.writeExport(w, r, format, in.Title, in.Markup)
}

// handleExportDocument renders a stored document.
func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		storeError(w, err)
		return
	}

	s.writeExport(w, r, format, doc.Title, doc.Markup)
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, format export.Format, title, markup string) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExportTimeout)
	defer cancel()

	data, err := s.exporter.Export(ctx, format, title, markup)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			jsonError(w, "export timed out", http.StatusServiceUnavailable)
			return
		}
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": exportFilename(title, format)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func exportFilename(title string, format export.Format) string {
	name := sanitizeFilename(strings.TrimSpace(title))
	if name == "unnamed" {
		name = "document"
	}
	return name + format.Ext()
}
