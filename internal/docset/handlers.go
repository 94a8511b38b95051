package docset

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"invoicedesk/internal/extract"
)

// maxUploadSize caps one multipart request; phone photos of invoices
// run large.
const maxUploadSize = int64(50 << 20)

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps the extraction error taxonomy to HTTP statuses so
// the caller can tell an unsupported file from an unreachable or broken
// extraction service.
func statusForError(err error) int {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrServiceUnreachable),
		errors.Is(err, extract.ErrServiceFailure),
		errors.Is(err, extract.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// contentTypeFor falls back to the filename extension when the part
// carries no usable content type.
func contentTypeFor(declared, filename string) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return ct
	}
}

// handleCreateBatch accepts a multipart upload of one or more source
// files and runs the normalization pipeline over them. A hard failure
// on any file rejects the whole batch and persists nothing.
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		// Single-file clients use the bare "file" field
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}

	files := make([]extract.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			slog.Error("Error opening form file", "filename", header.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Error reading upload")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading form file", "filename", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Error reading upload")
			return
		}
		files = append(files, extract.File{
			Name:        header.Filename,
			ContentType: contentTypeFor(header.Header.Get("Content-Type"), header.Filename),
			Data:        data,
		})
	}

	batch, err := s.service.ProcessBatch(r.Context(), files)
	if err != nil {
		slog.Error("Error processing batch", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, batch)
}

// handleListBatches returns all batches
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListBatches()
	if err != nil {
		slog.Error("Error listing batches", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// handleGetBatch returns a single batch
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.service.GetBatch(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Batch not found")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleDeleteBatch removes a batch and its stored files
func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteBatch(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "Batch not found")
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetUploadFile streams one original source document back
func (s *Server) handleGetUploadFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetUploadFile(r.PathValue("id"), r.PathValue("uploadID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	setCORSHeaders(w)
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Write(data)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var upd ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	batch, err := s.service.UpdateProduct(r.PathValue("id"), r.PathValue("productID"), upd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var upd CustomerUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	batch, err := s.service.UpdateCustomer(r.PathValue("id"), r.PathValue("customerID"), upd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var upd InvoiceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	batch, err := s.service.UpdateInvoice(r.PathValue("id"), r.PathValue("invoiceID"), upd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, batch)
}
