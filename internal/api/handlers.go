package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/tordrt/ddlschema/internal/ddl"
)

// Response details
const (
	detailNotSQLFile   = "Please upload a .sql file"
	detailMissingFile  = "Missing 'file' in request"
	detailMissingText  = "Missing 'sql_text' in request"
	detailInvalidForm  = "Invalid multipart form"
	detailInvalidJSON  = "Invalid JSON body"
	detailTooLarge     = "Request body too large"
	detailEmptyMessage = "Empty SQL message"
)

// multipartMemory is the part of an upload kept in memory; the rest spills to disk
const multipartMemory = 8 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, messageResponse{Message: "SQL Schema Parser API is running!"})
}

func (s *Server) handleParseSQL(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, detailTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, detailTooLarge)
			return
		}
		respondError(w, http.StatusUnprocessableEntity, detailInvalidForm)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("failed to remove multipart files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, detailMissingFile)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".sql") {
		respondError(w, http.StatusBadRequest, detailNotSQLFile)
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read upload", zap.String("filename", header.Filename), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	respond(w, r, http.StatusOK, s.extractor.Extract(ddl.DecodeSQL(raw)))
}

func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if isTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, detailTooLarge)
			return
		}
		respondError(w, http.StatusUnprocessableEntity, detailInvalidJSON)
		return
	}

	sqlText, _ := payload["sql_text"].(string)
	if sqlText == "" {
		respondError(w, http.StatusBadRequest, detailMissingText)
		return
	}

	respond(w, r, http.StatusOK, s.extractor.Extract(sqlText))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// encodeJSON renders v compactly without HTML escaping and without the
// encoder's trailing newline
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// etag returns a strong entity tag derived from the BLAKE3 digest of body
func etag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// respond writes v as JSON. Successful responses carry an ETag and answer a
// matching If-None-Match with 304.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}

	if status == http.StatusOK {
		tag := etag(body)
		w.Header().Set("ETag", tag)
		if matchesETag(r.Header.Get("If-None-Match"), tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	body, _ := encodeJSON(errorResponse{Detail: detail})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// matchesETag reports whether an If-None-Match header value lists tag
func matchesETag(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
