package convert

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Harsidak/papermd/internal/extract"
)

// Summary is the per-run record written as <name>_summary.json.
type Summary struct {
	RunID          string         `json:"run_id"`
	Input          string         `json:"input"`
	Source         extract.Source `json:"source"`
	Chars          int            `json:"chars"`
	Pages          int            `json:"pages"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	ImagesDir      string         `json:"images_dir"`
	ImageFiles     int            `json:"image_files"`
	Empty          bool           `json:"empty"`
	Outline        Outline        `json:"outline"`
}

// Outline counts the structural elements of a Markdown document.
type Outline struct {
	Headings  int `json:"headings"`
	ImageRefs int `json:"image_refs"`
}

func newSummary(r *Result) Summary {
	return Summary{
		RunID:          r.RunID,
		Input:          r.Input,
		Source:         r.Source,
		Chars:          r.Chars,
		Pages:          r.PageCount,
		ElapsedSeconds: r.Elapsed.Seconds(),
		ImagesDir:      r.ImagesDir,
		ImageFiles:     countFiles(r.ImagesDir),
		Empty:          r.Empty(),
		Outline:        ParseOutline(r.Markdown),
	}
}

// ParseOutline parses markdown with goldmark and counts headings and image
// references.
func ParseOutline(markdown string) Outline {
	var o Outline
	if markdown == "" {
		return o
	}
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			o.Headings++
		case *ast.Image:
			o.ImageRefs++
		}
		return ast.WalkContinue, nil
	})
	return o
}
