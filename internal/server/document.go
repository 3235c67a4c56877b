package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/pipeline"
)

type documentAuditRequest struct {
	DocumentText   string `json:"document_text"`
	DocumentName   string `json:"document_name"`
	DocumentType   string `json:"document_type"`
	RecipientEmail string `json:"recipient_email"`
}

// handleDocumentAnalyze analyzes already-extracted text submitted as JSON,
// bypassing upload storage and extraction.
func (s *Server) handleDocumentAnalyze(w http.ResponseWriter, r *http.Request) {
	var req documentAuditRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, common.ValidationError("Invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.DocumentText) == "" {
		s.writeError(w, common.ValidationError("document_text is required"))
		return
	}

	analysis, err := s.pipe.RunText(r.Context(), pipeline.TextInput{
		Text:      req.DocumentText,
		Name:      strings.TrimSpace(req.DocumentName),
		Type:      strings.TrimSpace(req.DocumentType),
		Recipient: strings.TrimSpace(req.RecipientEmail),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}
