// Package layout is the typed page -> block -> line -> span model produced by the
// layout-and-OCR runtime (or by direct PDF extraction) and consumed by the renderer.
//
// Type strings from the wire are parsed into closed enums at decode time. Anything
// unrecognised lands in an explicit Unknown arm instead of being dropped, so the
// renderer's switch statements stay exhaustive.
package layout

// BlockKind identifies a layout block variant.
type BlockKind int

const (
	BlockUnknown BlockKind = iota
	BlockTitle
	BlockText
	BlockImage
	BlockTable
)

var blockKindNames = map[BlockKind]string{
	BlockTitle: "title",
	BlockText:  "text",
	BlockImage: "image",
	BlockTable: "table",
}

// ParseBlockKind maps a wire type string to a BlockKind.
func ParseBlockKind(s string) BlockKind {
	for k, name := range blockKindNames {
		if name == s {
			return k
		}
	}
	return BlockUnknown
}

func (k BlockKind) String() string {
	if name, ok := blockKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SubBlockKind identifies the body/caption parts of an image or table block.
type SubBlockKind int

const (
	SubBlockUnknown SubBlockKind = iota
	SubBlockImageBody
	SubBlockImageCaption
	SubBlockTableBody
	SubBlockTableCaption
)

var subBlockKindNames = map[SubBlockKind]string{
	SubBlockImageBody:    "image_body",
	SubBlockImageCaption: "image_caption",
	SubBlockTableBody:    "table_body",
	SubBlockTableCaption: "table_caption",
}

// ParseSubBlockKind maps a wire type string to a SubBlockKind.
func ParseSubBlockKind(s string) SubBlockKind {
	for k, name := range subBlockKindNames {
		if name == s {
			return k
		}
	}
	return SubBlockUnknown
}

func (k SubBlockKind) String() string {
	if name, ok := subBlockKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SpanKind identifies what a span carries.
type SpanKind int

const (
	SpanUnknown SpanKind = iota
	SpanText
	SpanInlineEquation
	SpanInterlineEquation
	SpanImage
	SpanTable
)

var spanKindNames = map[SpanKind]string{
	SpanText:              "text",
	SpanInlineEquation:    "inline_equation",
	SpanInterlineEquation: "interline_equation",
	SpanImage:             "image",
	SpanTable:             "table",
}

// ParseSpanKind maps a wire type string to a SpanKind. An empty type is text.
func ParseSpanKind(s string) SpanKind {
	if s == "" {
		return SpanText
	}
	for k, name := range spanKindNames {
		if name == s {
			return k
		}
	}
	return SpanUnknown
}

func (k SpanKind) String() string {
	if name, ok := spanKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Document is an ordered sequence of pages. It is built once per input file and
// never mutated afterwards.
type Document struct {
	Pages []Page
}

// Page is one page of a document. Index is 0-based and fixes document order.
//
// Record is set only by the direct-extraction fallback, which works at page
// granularity instead of blocks.
type Page struct {
	Index  int
	Blocks []Block
	Record *PageRecord
}

// PageRecord is the coarse per-page output of direct PDF extraction.
type PageRecord struct {
	RawText    string
	CharCount  int
	ImageCount int
	Images     []string // image file names relative to the images directory
}

// Block is a layout region of a page.
//
// Title, text and unknown blocks carry Lines. Image and table blocks carry
// SubBlocks (body + caption) and may also carry direct Lines, which are consulted
// when the sub-blocks have no media path.
type Block struct {
	Kind      BlockKind
	RawType   string // original type string, kept so unknown blocks round-trip
	Lines     []Line
	SubBlocks []SubBlock
}

// SubBlock is the body or caption of an image/table block.
type SubBlock struct {
	Kind    SubBlockKind
	RawType string
	Lines   []Line
}

// Line is an ordered sequence of spans in reading order.
type Line struct {
	Spans []Span
}

// Span is the smallest linearizable unit.
//
// Content holds text for text/unknown spans and LaTeX source (without
// delimiters) for equations. ImagePath is set for image and table spans.
type Span struct {
	Kind      SpanKind
	RawType   string
	Content   string
	ImagePath string
	BBox      *BoundingBox
}

// BoundingBox locates a span on its page. Rendering never reads it.
type BoundingBox struct {
	X0         float64
	Y0         float64
	X1         float64
	Y1         float64
	PageNumber int
}

// PageCount returns the number of pages, tolerating a nil document.
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// IsEmpty reports whether the document has no pages with any content.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, p := range d.Pages {
		if len(p.Blocks) > 0 {
			return false
		}
		if p.Record != nil && (p.Record.CharCount > 0 || p.Record.ImageCount > 0) {
			return false
		}
	}
	return true
}
