// Package convert runs one PDF through the extraction chain and persists the
// Markdown, the structure JSON and a run summary next to the extracted images.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Harsidak/papermd/internal/extract"
)

const imagesDirName = "images"

// Config configures a Pipeline.
type Config struct {
	Chain      *extract.Chain
	OutputRoot string
	Logger     *slog.Logger
}

// Pipeline converts documents. It is safe for concurrent use. Every Convert
// call gets its own output directory: inputs that share a base name are
// numbered paper, paper-2, paper-3 in the order they start.
type Pipeline struct {
	chain      *extract.Chain
	outputRoot string
	logger     *slog.Logger

	mu    sync.Mutex
	taken map[string]bool // lowercased output names handed out so far
}

// Result describes one finished conversion.
type Result struct {
	RunID        string         `json:"run_id" yaml:"run_id"`
	Input          string         `json:"input" yaml:"input"`
	Source         extract.Source `json:"source" yaml:"source"`
	OutputDir      string         `json:"output_dir" yaml:"output_dir"`
	MarkdownPath   string         `json:"markdown_path" yaml:"markdown_path"`
	InfoPath       string         `json:"info_path" yaml:"info_path"`
	SummaryPath    string         `json:"summary_path" yaml:"summary_path"`
	ImagesDir      string         `json:"images_dir" yaml:"images_dir"`
	Markdown       string         `json:"-" yaml:"-"`
	Chars          int            `json:"chars" yaml:"chars"`
	PageCount      int            `json:"pages" yaml:"pages"`
	Elapsed        time.Duration  `json:"-" yaml:"-"`
	ElapsedSeconds float64        `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Empty reports a document that produced no usable text. Whether that is a
// failure is up to the caller.
func (r *Result) Empty() bool {
	return strings.TrimSpace(r.Markdown) == ""
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("extraction chain is required")
	}
	if cfg.OutputRoot == "" {
		return nil, fmt.Errorf("output root is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		chain:      cfg.Chain,
		outputRoot: cfg.OutputRoot,
		logger:     cfg.Logger.With("component", "convert"),
		taken:      make(map[string]bool),
	}, nil
}

// OutputRoot returns the directory under which per-document outputs are written.
func (p *Pipeline) OutputRoot() string {
	return p.outputRoot
}

// Convert extracts one document and writes its artifacts to
// <root>/<name>/{<name>.md, <name>_info.json, <name>_summary.json, images/}.
func (p *Pipeline) Convert(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := p.logger.With("run_id", runID, "file", filepath.Base(path))
	log.Info("starting extraction")

	name := p.reserveName(extract.DocumentName(path))
	outDir := filepath.Join(p.outputRoot, name)
	imagesDir := filepath.Join(outDir, imagesDirName)

	out, err := p.chain.Extract(ctx, path, imagesDir)
	if err != nil {
		log.Error("extraction failed", "error", err)
		return nil, err
	}

	result := &Result{
		RunID:        runID,
		Input:        path,
		Source:       out.Source,
		OutputDir:    outDir,
		MarkdownPath: filepath.Join(outDir, name+".md"),
		InfoPath:     filepath.Join(outDir, name+"_info.json"),
		SummaryPath:  filepath.Join(outDir, name+"_summary.json"),
		ImagesDir:    imagesDir,
		Markdown:     out.Markdown,
		Chars:        utf8.RuneCountInString(out.Markdown),
		PageCount:    out.Document.PageCount(),
	}

	firstErr := writeMarkdown(result.MarkdownPath, out.Markdown)
	if err := writeJSON(result.InfoPath, out.Document); err != nil && firstErr == nil {
		firstErr = err
	}
	result.Elapsed = time.Since(start)
	result.ElapsedSeconds = result.Elapsed.Seconds()
	if err := writeJSON(result.SummaryPath, newSummary(result)); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		log.Error("failed to persist artifacts", "error", firstErr)
		return nil, firstErr
	}

	if result.Empty() {
		log.Warn("document produced no text", "source", result.Source, "pages", result.PageCount)
	}
	log.Info("extraction complete",
		"source", result.Source,
		"chars", result.Chars,
		"pages", result.PageCount,
		"elapsed", result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// reserveName returns base, or base-N for the first N >= 2 not yet used by
// this pipeline. Names are compared case-insensitively so outputs stay apart
// on case-folding filesystems.
func (p *Pipeline) reserveName(base string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := base
	for i := 2; p.taken[strings.ToLower(name)]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	p.taken[strings.ToLower(name)] = true
	return name
}

// countFiles returns the number of regular files directly under dir.
func countFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n
}
