package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Harsidak/papermd/internal/layout"
)

// DefaultHeadingMaxLen is the length (in characters) below which the first
// line of a page is promoted to a heading.
const DefaultHeadingMaxLen = 80

// FallbackConfig configures direct extraction.
type FallbackConfig struct {
	HeadingMaxLen int
	Logger        *slog.Logger
}

// FallbackStrategy reads text and embedded images straight out of the PDF.
// pdfcpu validates the file and extracts images; the text layer is decoded
// with ledongthuc/pdf, which resolves font encodings and ToUnicode maps. It
// needs no external runtime and works at page granularity.
type FallbackStrategy struct {
	headingMaxLen int
	logger        *slog.Logger
}

// NewFallbackStrategy creates the direct-extraction strategy.
func NewFallbackStrategy(cfg FallbackConfig) *FallbackStrategy {
	if cfg.HeadingMaxLen <= 0 {
		cfg.HeadingMaxLen = DefaultHeadingMaxLen
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FallbackStrategy{
		headingMaxLen: cfg.HeadingMaxLen,
		logger:        cfg.Logger.With("component", "extract", "strategy", SourceFallback),
	}
}

// Name returns SourceFallback.
func (s *FallbackStrategy) Name() Source {
	return SourceFallback
}

// Extract reads every page of the PDF.
func (s *FallbackStrategy) Extract(ctx context.Context, path, imagesDir string) (*Output, error) {
	pctx, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: text layer: %v", ErrCorruptInput, filepath.Base(path), err)
	}
	defer f.Close()

	doc := &layout.Document{Pages: make([]layout.Page, 0, pctx.PageCount)}
	var fragments []string
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		lines := s.pageLines(reader, pageNr)
		images := s.pageImages(pctx, pageNr, imagesDir)

		raw := strings.Join(lines, "\n")
		doc.Pages = append(doc.Pages, layout.Page{
			Index: pageNr - 1,
			Record: &layout.PageRecord{
				RawText:    raw,
				CharCount:  utf8.RuneCountInString(raw),
				ImageCount: images.found,
				Images:     images.written,
			},
		})

		if frag := s.pageFragment(lines); frag != "" {
			fragments = append(fragments, frag)
		}
	}

	markdown := ""
	if len(fragments) > 0 {
		markdown = "# " + DocumentName(path) + "\n\n" + strings.Join(fragments, "\n\n")
	}

	return &Output{
		Markdown:  markdown,
		Document:  doc,
		ImagesDir: imagesDir,
		Source:    SourceFallback,
	}, nil
}

// pageFragment applies the heading heuristic: the first line becomes a level-2
// heading when it is short and does not end with a period.
func (s *FallbackStrategy) pageFragment(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	first := lines[0]
	if utf8.RuneCountInString(first) >= s.headingMaxLen || strings.HasSuffix(first, ".") {
		return strings.Join(lines, "\n")
	}
	frag := "## " + first
	if len(lines) > 1 {
		frag += "\n\n" + strings.Join(lines[1:], "\n")
	}
	return frag
}

// pageLines decodes the text layer of one page. Malformed content streams
// make the reader panic; such a page is logged and yields no text.
func (s *FallbackStrategy) pageLines(reader *pdf.Reader, pageNr int) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("failed to decode page text", "page", pageNr, "error", r)
			lines = nil
		}
	}()

	if pageNr > reader.NumPage() {
		return nil
	}
	page := reader.Page(pageNr)
	if page.V.IsNull() {
		s.logger.Debug("page has no dictionary", "page", pageNr)
		return nil
	}
	return textLines(page.Content().Text)
}

type imageSet struct {
	found   int
	written []string
}

// pageImages writes the page's embedded images as page<N>_img<M>.<ext>.
// A failing image is logged and skipped.
func (s *FallbackStrategy) pageImages(pctx *model.Context, pageNr int, imagesDir string) imageSet {
	var out imageSet
	if pctx.Optimize == nil {
		return out
	}
	imgs, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
	if err != nil {
		s.logger.Warn("failed to extract page images", "page", pageNr, "error", err)
		return out
	}

	objNrs := make([]int, 0, len(imgs))
	for objNr := range imgs {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)
	out.found = len(objNrs)

	for i, objNr := range objNrs {
		img := imgs[objNr]
		name := imageFileName(pageNr, i+1, img.FileType)
		if img.Reader == nil {
			s.logger.Warn("skipping image without data", "page", pageNr, "image", name)
			continue
		}
		data, err := io.ReadAll(img)
		if err != nil {
			s.logger.Warn("failed to read image", "page", pageNr, "image", name, "error", err)
			continue
		}
		if err := os.WriteFile(filepath.Join(imagesDir, name), data, 0o644); err != nil {
			s.logger.Warn("failed to write image", "page", pageNr, "image", name, "error", err)
			continue
		}
		out.written = append(out.written, name)
	}
	return out
}

// imageFileName builds the deterministic name for the m-th image of page n.
func imageFileName(page, index int, fileType string) string {
	ext := strings.TrimPrefix(strings.ToLower(fileType), ".")
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("page%d_img%d.%s", page, index, ext)
}

// openPDF reads, validates and optimizes a PDF. Any failure is ErrCorruptInput
// except a missing file.
func openPDF(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptInput, filepath.Base(path), err)
	}
	return pctx, nil
}
