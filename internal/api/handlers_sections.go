package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/resumetailor/internal/parser"
	"github.com/dgallion1/resumetailor/internal/pipeline"
	"github.com/dgallion1/resumetailor/internal/rewrite"
	"github.com/dgallion1/resumetailor/internal/segment"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (s *Server) handleExtractSections(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	filename, data, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}

	res, err := s.service.Extract(r.Context(), filename, data)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	// Rejected files keep their position in the response.
	out := make([]pipeline.Result, len(files))
	uploads := make([]pipeline.Upload, 0, len(files))
	slots := make([]int, 0, len(files))
	for i, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		data, err := s.readFileHeader(fh)
		if err != nil {
			out[i] = pipeline.Result{Filename: filename, Sections: []segment.Section{}, Error: err.Error()}
			continue
		}
		uploads = append(uploads, pipeline.Upload{Filename: filename, Data: data})
		slots = append(slots, i)
	}

	results, err := s.service.ExtractBatch(r.Context(), uploads)
	if err != nil {
		jsonError(w, "batch cancelled: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	for j, res := range results {
		out[slots[j]] = res
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": out})
}

func (s *Server) handleRebuildDOCX(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	raw := r.FormValue("replacements")
	if raw == "" {
		jsonError(w, "replacements is required", http.StatusBadRequest)
		return
	}
	var edits []rewrite.Edit
	if err := json.Unmarshal([]byte(raw), &edits); err != nil {
		jsonError(w, "invalid replacements: "+err.Error(), http.StatusBadRequest)
		return
	}

	var (
		out    []byte
		report rewrite.Report
		err    error
	)
	if docID := r.FormValue("doc_id"); docID != "" {
		out, report, err = s.service.RebuildStored(r.Context(), docID, edits)
	} else {
		filename, data, ok := s.readUpload(w, r, "file")
		if !ok {
			return
		}
		if !parser.IsRewritable(filename) {
			jsonError(w, fmt.Sprintf("cannot rebuild %s files, only .docx", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		out, report, err = s.service.Rebuild(r.Context(), data, edits)
	}
	if err != nil {
		s.serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=tailored_resume.docx")
	w.Header().Set("X-Replacements-Applied", fmt.Sprint(len(report.Applied)))
	if len(report.Skipped) > 0 {
		w.Header().Set("X-Replacements-Skipped", joinInts(report.Skipped))
	}
	w.Write(out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.service.Document(chi.URLParam(r, "docID"))
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// readUpload reads one multipart file field, writing the error response
// itself when the upload is missing, unsupported or too large.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		jsonError(w, field+" is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

func (s *Server) readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	if !parser.IsSupportedExtension(fh.Filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errors.New("file too large or read error")
	}
	return data, nil
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedFormat):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pipeline.ErrInvalidDocument):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, pipeline.ErrDocumentNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		s.log.Error("request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}
