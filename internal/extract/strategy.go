// Package extract turns a PDF on disk into Markdown plus a layout.Document.
//
// Extraction runs through an ordered Chain of strategies. The layout-model
// strategy comes first; when its runtime is unavailable the chain falls
// through, exactly once, to direct extraction with pdfcpu.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Harsidak/papermd/internal/layout"
)

// Source labels which strategy produced an Output.
type Source string

const (
	SourceFull     Source = "full"
	SourceFallback Source = "fallback"
)

// Output is the result of one successful extraction.
//
// An empty Markdown string is not an error: it reports a document with no
// usable text and leaves the policy to the caller.
type Output struct {
	Markdown  string
	Document  *layout.Document
	ImagesDir string
	Source    Source
}

// Strategy extracts one document. Implementations write images under
// imagesDir, which the caller has already created.
type Strategy interface {
	Name() Source
	Extract(ctx context.Context, path, imagesDir string) (*Output, error)
}

// Chain tries strategies in order.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain creates a chain. A nil logger uses slog.Default().
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		strategies: strategies,
		logger:     logger.With("component", "extract"),
	}
}

// Strategies returns the strategy names in the order they are tried.
func (c *Chain) Strategies() []Source {
	names := make([]Source, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract runs the chain for one file.
//
// Only ErrCapabilityUnavailable advances to the next strategy; any other
// error is returned as is. If every strategy is unavailable, the last
// capability error is returned.
func (c *Chain) Extract(ctx context.Context, path, imagesDir string) (*Output, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrCorruptInput, path)
	}
	if len(c.strategies) == 0 {
		return nil, fmt.Errorf("no extraction strategies configured")
	}
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	var lastErr error
	for _, s := range c.strategies {
		out, err := s.Extract(ctx, path, imagesDir)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrCapabilityUnavailable) {
			return nil, err
		}
		c.logger.Warn("strategy unavailable, falling through",
			"strategy", s.Name(),
			"file", filepath.Base(path),
			"error", err)
		lastErr = err
	}
	return nil, lastErr
}

// DocumentName returns the file's base name without its extension.
// e.g., "/data/paper.v2.pdf" -> "paper.v2"
func DocumentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
