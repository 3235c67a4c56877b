package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/async"
	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/export"
	"github.com/joseph-ayodele/audit-agent/internal/extract"
	"github.com/joseph-ayodele/audit-agent/internal/llm/groq"
	"github.com/joseph-ayodele/audit-agent/internal/pipeline"
	"github.com/joseph-ayodele/audit-agent/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type batchRecord struct {
	File   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of documents to analyze (required)")
		out        = flag.String("out", "", "output XLSX flag report path (optional, defaults to parent directory)")
		jsonl      = flag.String("jsonl", "", "optional JSONL path for per-document results")
		workers    = flag.Int("workers", 4, "number of concurrent analysis workers")
		jobTimeout = flag.Duration("job-timeout", 3*time.Minute, "per-document processing timeout")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "audit_flags.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	if !cfg.GroqEnabled() {
		logger.Error("GROQ_API_KEY not configured, cannot analyze documents")
		os.Exit(1)
	}

	// Stage uploads in a scratch directory that vanishes with the run.
	scratch, err := os.MkdirTemp("", "audit_batch_*")
	if err != nil {
		logger.Error("failed to create scratch directory", "error", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	st, err := store.New(scratch, logger)
	if err != nil {
		logger.Error("failed to open staging storage", "error", err)
		os.Exit(1)
	}

	analyzer := groq.NewClient(groq.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("groq client initialized", "model", cfg.LLM.Model)

	// Batch runs analyze only: no charts, no email.
	pipe := pipeline.New(st, extract.New(logger), analyzer, nil, nil, nil, pipeline.Config{}, logger)

	files, err := collectDocuments(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		printError("No supported documents found in %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("starting batch analysis", "dir", *dir, "files", len(files), "workers", *workers)

	var (
		mu      sync.Mutex
		records []batchRecord
	)
	queue := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		rec := analyzeOne(ctx, pipe, job.Path)
		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
		if rec.Error != "" {
			return fmt.Errorf("%s", rec.Error)
		}
		return nil
	}, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(len(files)),
		async.WithJobTimeout(*jobTimeout),
	)

	for _, f := range files {
		_ = queue.Enqueue(ctx, async.Job{Path: f, SubmittedAt: time.Now()})
	}
	queue.Shutdown(ctx)

	sort.Slice(records, func(i, j int) bool { return records[i].File < records[j].File })

	processed := 0
	failures := 0
	var rows []export.FlagRow
	var totalFlagged float64
	for _, rec := range records {
		if rec.Error != "" {
			failures++
			continue
		}
		processed++
		rows = append(rows, export.FlagRows(rec.Result.Filename, rec.Result.Analysis.Flags)...)
		totalFlagged += rec.Result.Analysis.TotalFlaggedAmount
	}

	if *jsonl != "" {
		if err := writeJSONL(*jsonl, records); err != nil {
			logger.Error("failed to write JSONL results", "path", *jsonl, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("exporting flag report", "output", *out, "rows", len(rows))
	xlsxBytes, err := export.NewService(logger).Workbook(rows, totalFlagged)
	if err != nil {
		logger.Error("failed to build flag report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch analysis complete",
		"files_found", len(files),
		"files_processed", processed,
		"failures", failures,
		"flags", len(rows),
		"output_file", *out)

	fmt.Printf("Batch analysis complete!\n")
	fmt.Printf("- Documents found: %d\n", len(files))
	fmt.Printf("- Documents analyzed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Flags raised: %d\n", len(rows))
	fmt.Printf("- Output: %s\n", *out)
}

// collectDocuments walks dir and returns every file with a supported
// extension, sorted for stable processing order.
func collectDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(d.Name()))
		if _, ok := constants.AllowedExtensions[ext]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func analyzeOne(ctx context.Context, pipe *pipeline.Pipeline, path string) batchRecord {
	content, err := os.ReadFile(path)
	if err != nil {
		return batchRecord{File: path, Error: fmt.Sprintf("read file: %s", err)}
	}
	res, err := pipe.Run(ctx, pipeline.Upload{
		Filename: filepath.Base(path),
		Content:  content,
	})
	if err != nil {
		return batchRecord{File: path, Error: err.Error()}
	}
	return batchRecord{File: path, Result: res}
}

func writeJSONL(path string, records []batchRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
