package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Wire types mirror the layout runtime's pdf_info JSON.

type wireDocument struct {
	Pages []wirePage `json:"pdf_info"`
}

type wirePage struct {
	PageIdx       *int        `json:"page_idx,omitempty"`
	ParaBlocks    []wireBlock `json:"para_blocks,omitempty"`
	PreprocBlocks []wireBlock `json:"preproc_blocks,omitempty"`

	RawText    string   `json:"raw_text,omitempty"`
	CharCount  int      `json:"char_count,omitempty"`
	ImageCount int      `json:"image_count,omitempty"`
	Images     []string `json:"images,omitempty"`
}

type wireBlock struct {
	Type   string      `json:"type"`
	Lines  []wireLine  `json:"lines,omitempty"`
	Blocks []wireBlock `json:"blocks,omitempty"`
}

type wireLine struct {
	Spans []wireSpan `json:"spans"`
}

type wireSpan struct {
	Type       string    `json:"type,omitempty"`
	Content    string    `json:"content,omitempty"`
	ImagePath  string    `json:"image_path,omitempty"`
	BBox       []float64 `json:"bbox,omitempty"`
	PageNumber *int      `json:"page_number,omitempty"`
}

// Decode validates data against the layout schema and builds a Document.
func Decode(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return &doc, nil
}

// UnmarshalJSON decodes pdf_info JSON without schema validation.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	pages := make([]Page, 0, len(w.Pages))
	for i, wp := range w.Pages {
		idx := i
		if wp.PageIdx != nil {
			idx = *wp.PageIdx
		}

		// Paragraph-merged blocks win; the pre-merge list is only a fallback.
		src := wp.ParaBlocks
		if len(src) == 0 {
			src = wp.PreprocBlocks
		}

		page := Page{Index: idx, Blocks: convertBlocks(src)}
		if wp.RawText != "" || wp.CharCount > 0 || wp.ImageCount > 0 || len(wp.Images) > 0 {
			page.Record = &PageRecord{
				RawText:    wp.RawText,
				CharCount:  wp.CharCount,
				ImageCount: wp.ImageCount,
				Images:     wp.Images,
			}
		}
		pages = append(pages, page)
	}

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	d.Pages = pages
	return nil
}

// MarshalJSON encodes the document in the same pdf_info shape it was decoded from.
func (d Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{Pages: make([]wirePage, 0, len(d.Pages))}
	for _, p := range d.Pages {
		idx := p.Index
		wp := wirePage{PageIdx: &idx, ParaBlocks: wireBlocks(p.Blocks)}
		if r := p.Record; r != nil {
			wp.RawText = r.RawText
			wp.CharCount = r.CharCount
			wp.ImageCount = r.ImageCount
			wp.Images = r.Images
		}
		w.Pages = append(w.Pages, wp)
	}

	// Keep "<", ">" and "&" literal; the structure is written for people to read.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func convertBlocks(in []wireBlock) []Block {
	if len(in) == 0 {
		return nil
	}
	out := make([]Block, 0, len(in))
	for _, wb := range in {
		b := Block{
			Kind:    ParseBlockKind(wb.Type),
			RawType: wb.Type,
			Lines:   convertLines(wb.Lines),
		}
		for _, sub := range wb.Blocks {
			b.SubBlocks = append(b.SubBlocks, SubBlock{
				Kind:    ParseSubBlockKind(sub.Type),
				RawType: sub.Type,
				Lines:   convertLines(sub.Lines),
			})
		}
		out = append(out, b)
	}
	return out
}

func convertLines(in []wireLine) []Line {
	if len(in) == 0 {
		return nil
	}
	out := make([]Line, 0, len(in))
	for _, wl := range in {
		line := Line{Spans: make([]Span, 0, len(wl.Spans))}
		for _, ws := range wl.Spans {
			line.Spans = append(line.Spans, Span{
				Kind:      ParseSpanKind(ws.Type),
				RawType:   ws.Type,
				Content:   ws.Content,
				ImagePath: ws.ImagePath,
				BBox:      convertBBox(ws.BBox, ws.PageNumber),
			})
		}
		out = append(out, line)
	}
	return out
}

func convertBBox(coords []float64, pageNumber *int) *BoundingBox {
	if len(coords) != 4 && pageNumber == nil {
		return nil
	}
	bb := &BoundingBox{}
	if len(coords) == 4 {
		bb.X0, bb.Y0, bb.X1, bb.Y1 = coords[0], coords[1], coords[2], coords[3]
	}
	if pageNumber != nil {
		bb.PageNumber = *pageNumber
	}
	return bb
}

func wireBlocks(in []Block) []wireBlock {
	if len(in) == 0 {
		return nil
	}
	out := make([]wireBlock, 0, len(in))
	for _, b := range in {
		wb := wireBlock{Type: typeName(b.Kind.String(), b.Kind == BlockUnknown, b.RawType), Lines: wireLines(b.Lines)}
		for _, sub := range b.SubBlocks {
			wb.Blocks = append(wb.Blocks, wireBlock{
				Type:  typeName(sub.Kind.String(), sub.Kind == SubBlockUnknown, sub.RawType),
				Lines: wireLines(sub.Lines),
			})
		}
		out = append(out, wb)
	}
	return out
}

func wireLines(in []Line) []wireLine {
	if len(in) == 0 {
		return nil
	}
	out := make([]wireLine, 0, len(in))
	for _, l := range in {
		wl := wireLine{Spans: make([]wireSpan, 0, len(l.Spans))}
		for _, s := range l.Spans {
			ws := wireSpan{
				Type:      typeName(s.Kind.String(), s.Kind == SpanUnknown, s.RawType),
				Content:   s.Content,
				ImagePath: s.ImagePath,
			}
			if bb := s.BBox; bb != nil {
				ws.BBox = []float64{bb.X0, bb.Y0, bb.X1, bb.Y1}
				pn := bb.PageNumber
				ws.PageNumber = &pn
			}
			wl.Spans = append(wl.Spans, ws)
		}
		out = append(out, wl)
	}
	return out
}

// typeName picks the wire type string: known kinds use their canonical name,
// unknown kinds echo whatever the runtime sent.
func typeName(canonical string, unknown bool, raw string) string {
	if unknown {
		return raw
	}
	return canonical
}
