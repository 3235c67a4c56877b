package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/pipeline"
	"github.com/joseph-ayodele/audit-agent/internal/validate"
)

// multipart parts beyond this stay on disk rather than in memory
const maxMultipartMemory = 16 << 20

type cleanupResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	FilesDeleted int    `json:"files_deleted"`
	MaxAgeHours  int    `json:"max_age_hours"`
}

// handleAnalyze accepts a multipart upload (file field plus optional
// recipient_email) and runs the full pipeline on it.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeError(w, common.ValidationError("Failed to read uploaded file: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, common.ValidationError("Failed to read uploaded file: missing file field"))
		return
	}
	defer func() { _ = file.Close() }()

	recipient := strings.TrimSpace(r.FormValue("recipient_email"))

	// Reject on the declared size before buffering the part.
	if err := validate.CheckUpload(header.Filename, header.Size); err != nil {
		s.writeError(w, err)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, common.ValidationError("Failed to read uploaded file: "+err.Error()))
		return
	}

	result, err := s.pipe.Run(r.Context(), pipeline.Upload{
		Filename:  header.Filename,
		Content:   content,
		Recipient: recipient,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleUploadInfo reports the static upload capabilities.
func (s *Server) handleUploadInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":     "File Upload & Analysis API",
		"version":     s.cfg.App.Version,
		"description": "Upload financial documents for automated fraud detection",
		"supported_formats": []map[string]any{
			{
				"extension":   ".pdf",
				"description": "Adobe PDF documents",
				"mime_types":  []string{"application/pdf"},
			},
			{
				"extension":   ".docx",
				"description": "Microsoft Word documents",
				"mime_types":  []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
			},
			{
				"extension":   ".txt",
				"description": "Plain text files",
				"mime_types":  []string{"text/plain"},
			},
		},
		"limits": map[string]any{
			"max_file_size_mb":    validate.MaxFileSizeBytes / (1 << 20),
			"max_file_size_bytes": validate.MaxFileSizeBytes,
			"min_text_length":     validate.MinTextChars,
			"max_text_length":     validate.MaxAnalyzeChars,
		},
		"endpoints": map[string]string{
			"POST /api/v1/upload/analyze": "Upload and analyze a document",
			"GET /api/v1/upload/":         "Get API information",
			"POST /api/v1/upload/cleanup": "Clean up old files",
		},
	})
}

// handleCleanup triggers a storage sweep. max_age_hours defaults to 24;
// zero or negative values delete everything currently staged.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	maxAgeHours := 24
	if q := r.URL.Query().Get("max_age_hours"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			s.writeError(w, common.ValidationError("max_age_hours must be an integer"))
			return
		}
		maxAgeHours = n
	}

	deleted, err := s.store.Sweep(time.Duration(maxAgeHours) * time.Hour)
	if err != nil {
		s.writeError(w, common.NewAppError("CLEANUP_ERROR", fmt.Sprintf("Cleanup failed: %s", err), err))
		return
	}

	s.writeJSON(w, http.StatusOK, cleanupResponse{
		Success:      true,
		Message:      "Cleanup completed successfully",
		FilesDeleted: deleted,
		MaxAgeHours:  maxAgeHours,
	})
}
