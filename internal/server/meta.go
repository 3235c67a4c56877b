package server

import "net/http"

type healthResponse struct {
	Status      string `json:"status"`
	AppName     string `json:"app_name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		AppName:     s.cfg.App.Name,
		Version:     s.cfg.App.Version,
		Environment: s.cfg.App.Environment,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to " + s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"health":  "/health",
		"apis": map[string]string{
			"document_analysis": "/api/v1/document",
			"file_upload":       "/api/v1/upload",
		},
		"features": map[string]bool{
			"ai_analysis":   s.status.GroqEnabled,
			"email_reports": s.status.MailEnabled,
		},
	})
}
