package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Harsidak/papermd/internal/layout"
	"github.com/Harsidak/papermd/internal/providers"
	"github.com/Harsidak/papermd/internal/render"
)

// FullConfig configures the layout-model strategy.
type FullConfig struct {
	// Provider is the layout runtime. Nil means the capability is disabled.
	Provider providers.LayoutProvider
	Renderer *render.Renderer
	OCR      bool
	Logger   *slog.Logger
}

// FullStrategy extracts through an external layout-and-OCR model and renders
// the returned block structure.
type FullStrategy struct {
	provider providers.LayoutProvider
	renderer *render.Renderer
	ocr      bool
	logger   *slog.Logger
}

// NewFullStrategy creates the layout-model strategy.
func NewFullStrategy(cfg FullConfig) *FullStrategy {
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(render.DefaultOptions())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FullStrategy{
		provider: cfg.Provider,
		renderer: cfg.Renderer,
		ocr:      cfg.OCR,
		logger:   cfg.Logger.With("component", "extract", "strategy", SourceFull),
	}
}

// Name returns SourceFull.
func (s *FullStrategy) Name() Source {
	return SourceFull
}

// Extract runs layout analysis and renders the result.
func (s *FullStrategy) Extract(ctx context.Context, path, imagesDir string) (*Output, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no layout provider configured", ErrCapabilityUnavailable)
	}
	if err := s.provider.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s health check: %v", ErrCapabilityUnavailable, s.provider.Name(), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	result, err := s.provider.Analyze(ctx, &providers.LayoutRequest{
		FileName: filepath.Base(path),
		PDF:      data,
		OCR:      s.ocr,
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, providers.ErrUnavailable):
			return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		case errors.Is(err, providers.ErrRejected):
			return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
		default:
			return nil, fmt.Errorf("layout analysis failed: %w", err)
		}
	}

	doc, err := layout.Decode(result.Structure)
	if err != nil {
		return nil, fmt.Errorf("layout runtime returned an unusable structure: %w", err)
	}

	written := s.writeImages(imagesDir, result.Images)
	markdown := s.renderer.Render(doc)

	s.logger.Debug("layout analysis complete",
		"file", filepath.Base(path),
		"model", result.ModelUsed,
		"pages", doc.PageCount(),
		"images", written,
		"duration", result.ExecutionTime)

	return &Output{
		Markdown:  markdown,
		Document:  doc,
		ImagesDir: imagesDir,
		Source:    SourceFull,
	}, nil
}

// writeImages stores returned image bytes under imagesDir, flattening any
// directory part of the name. Failures are logged and skipped.
func (s *FullStrategy) writeImages(imagesDir string, images map[string][]byte) int {
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		base := filepath.Base(name)
		if base == "." || base == string(filepath.Separator) {
			s.logger.Warn("skipping image with empty name", "name", name)
			continue
		}
		data := images[name]
		if data == nil {
			s.logger.Warn("skipping undecodable image", "name", name)
			continue
		}
		if err := os.WriteFile(filepath.Join(imagesDir, base), data, 0o644); err != nil {
			s.logger.Warn("failed to write image", "name", base, "error", err)
			continue
		}
		written++
	}
	return written
}
