// Package render turns a layout.Document into Markdown.
//
// Rendering is a pure function of its input: a Renderer holds only its options
// and can be shared by any number of concurrent conversions.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/Harsidak/papermd/internal/layout"
)

const (
	// PageSeparator joins rendered pages in the assembled document.
	PageSeparator = "\n\n---\n\n"

	// DefaultTitleHeadingMaxLen is the length (in characters) at which a title
	// block stops being rendered as a heading and is bolded instead. Long
	// "titles" are usually body text the layout model misclassified.
	DefaultTitleHeadingMaxLen = 80

	blockSeparator   = "\n\n"
	defaultFigureAlt = "Figure"
	defaultTableAlt  = "Table"
)

// Options tunes the rendering heuristics.
type Options struct {
	TitleHeadingMaxLen int
}

// DefaultOptions returns the stock heuristics.
func DefaultOptions() Options {
	return Options{TitleHeadingMaxLen: DefaultTitleHeadingMaxLen}
}

// Renderer converts layout structures into Markdown.
type Renderer struct {
	opts Options
}

// New creates a Renderer. Zero or negative options fall back to defaults.
func New(opts Options) *Renderer {
	if opts.TitleHeadingMaxLen <= 0 {
		opts.TitleHeadingMaxLen = DefaultTitleHeadingMaxLen
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render produces the Markdown for a whole document.
func (r *Renderer) Render(doc *layout.Document) string {
	if doc == nil {
		return ""
	}
	pages := make([]string, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		pages = append(pages, r.RenderPage(page))
	}
	return Assemble(pages)
}

// RenderPage renders every block of a page, skipping blocks that produce no text.
func (r *Renderer) RenderPage(page layout.Page) string {
	parts := make([]string, 0, len(page.Blocks))
	for _, block := range page.Blocks {
		if frag := r.RenderBlock(block); strings.TrimSpace(frag) != "" {
			parts = append(parts, frag)
		}
	}
	return strings.Join(parts, blockSeparator)
}

// RenderBlock renders a single block. The result may be empty.
func (r *Renderer) RenderBlock(block layout.Block) string {
	switch block.Kind {
	case layout.BlockTitle:
		return r.renderTitle(block)
	case layout.BlockImage:
		return renderMedia(block, imageMedia)
	case layout.BlockTable:
		return renderMedia(block, tableMedia)
	default:
		// Text and unknown blocks.
		return Linearize(block.Lines)
	}
}

func (r *Renderer) renderTitle(block layout.Block) string {
	text := strings.TrimSpace(Linearize(block.Lines))
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) < r.opts.TitleHeadingMaxLen {
		return "## " + text
	}
	return "**" + text + "**"
}

// mediaRules describes how an image-like block finds its path and caption.
type mediaRules struct {
	defaultAlt string
	isBody     func(layout.SubBlockKind) bool
	isCaption  func(layout.SubBlockKind) bool
	hasPath    func(layout.Span) bool
}

var imageMedia = mediaRules{
	defaultAlt: defaultFigureAlt,
	isBody:     func(k layout.SubBlockKind) bool { return k == layout.SubBlockImageBody },
	isCaption:  func(k layout.SubBlockKind) bool { return k == layout.SubBlockImageCaption },
	hasPath: func(s layout.Span) bool {
		return s.Kind == layout.SpanImage && s.ImagePath != ""
	},
}

// Tables arrive as images of the table region, so image sub-blocks are
// accepted as aliases and any span with a path counts.
var tableMedia = mediaRules{
	defaultAlt: defaultTableAlt,
	isBody: func(k layout.SubBlockKind) bool {
		return k == layout.SubBlockTableBody || k == layout.SubBlockImageBody
	},
	isCaption: func(k layout.SubBlockKind) bool {
		return k == layout.SubBlockTableCaption || k == layout.SubBlockImageCaption
	},
	hasPath: func(s layout.Span) bool { return s.ImagePath != "" },
}

func renderMedia(block layout.Block, rules mediaRules) string {
	var path, caption string
	for _, sub := range block.SubBlocks {
		switch {
		case rules.isBody(sub.Kind):
			if p := lastPath(sub.Lines, rules.hasPath); p != "" {
				path = p
			}
		case rules.isCaption(sub.Kind):
			caption = strings.TrimSpace(Linearize(sub.Lines))
		}
	}
	if path == "" {
		path = lastPath(block.Lines, rules.hasPath)
	}
	if path == "" {
		return ""
	}

	alt := caption
	if alt == "" {
		alt = rules.defaultAlt
	}
	out := "![" + alt + "](" + path + ")"
	if caption != "" {
		out += blockSeparator + "*" + caption + "*"
	}
	return out
}

func lastPath(lines []layout.Line, hasPath func(layout.Span) bool) string {
	var path string
	for _, line := range lines {
		for _, span := range line.Spans {
			if hasPath(span) {
				path = span.ImagePath
			}
		}
	}
	return path
}

// Assemble joins rendered page fragments with PageSeparator. Empty or
// whitespace-only fragments contribute nothing, not even a separator.
func Assemble(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, PageSeparator)
}
