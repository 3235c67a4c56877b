package groq

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/audit-agent/internal/validate"
)

// Config for the Groq analyzer client.
type Config struct {
	APIKey      string        // if empty, falls back to env GROQ_API_KEY
	BaseURL     string        // default https://api.groq.com/openai/v1
	Model       string        // e.g. "llama-3.3-70b-versatile"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
	MaxChars    int           // cap on analyzed text
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = validate.MaxAnalyzeChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}
