package layout

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKinds(t *testing.T) {
	t.Run("block kinds", func(t *testing.T) {
		tests := []struct {
			in   string
			want BlockKind
		}{
			{"title", BlockTitle},
			{"text", BlockText},
			{"image", BlockImage},
			{"table", BlockTable},
			{"interline_equation", BlockUnknown},
			{"", BlockUnknown},
		}
		for _, tt := range tests {
			if got := ParseBlockKind(tt.in); got != tt.want {
				t.Errorf("ParseBlockKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})

	t.Run("sub-block kinds", func(t *testing.T) {
		tests := []struct {
			in   string
			want SubBlockKind
		}{
			{"image_body", SubBlockImageBody},
			{"image_caption", SubBlockImageCaption},
			{"table_body", SubBlockTableBody},
			{"table_caption", SubBlockTableCaption},
			{"table_footnote", SubBlockUnknown},
		}
		for _, tt := range tests {
			if got := ParseSubBlockKind(tt.in); got != tt.want {
				t.Errorf("ParseSubBlockKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})

	t.Run("span kinds default to text", func(t *testing.T) {
		if got := ParseSpanKind(""); got != SpanText {
			t.Errorf("ParseSpanKind(\"\") = %v, want text", got)
		}
		if got := ParseSpanKind("inline_equation"); got != SpanInlineEquation {
			t.Errorf("got %v, want inline_equation", got)
		}
		if got := ParseSpanKind("footnote_mark"); got != SpanUnknown {
			t.Errorf("got %v, want unknown", got)
		}
	})
}

const samplePDFInfo = `{
  "pdf_info": [
    {
      "page_idx": 1,
      "para_blocks": [
        {
          "type": "image",
          "bbox": [1, 2, 3, 4],
          "blocks": [
            {"type": "image_body", "lines": [{"spans": [{"type": "image", "image_path": "images/fig1.png"}]}]},
            {"type": "image_caption", "lines": [{"spans": [{"type": "text", "content": "Results"}]}]}
          ]
        }
      ]
    },
    {
      "page_idx": 0,
      "preproc_blocks": [
        {"type": "title", "lines": [{"spans": [{"content": "Introduction", "bbox": [10, 20, 110, 40], "page_number": 1}]}]},
        {"type": "text", "lines": [{"spans": [{"type": "text", "content": "We study X."}]}]}
      ]
    }
  ]
}`

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(samplePDFInfo))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}

	t.Run("pages ordered by page_idx", func(t *testing.T) {
		if doc.Pages[0].Index != 0 || doc.Pages[1].Index != 1 {
			t.Errorf("unexpected page order: %d, %d", doc.Pages[0].Index, doc.Pages[1].Index)
		}
	})

	t.Run("preproc blocks used when para blocks absent", func(t *testing.T) {
		p := doc.Pages[0]
		if len(p.Blocks) != 2 {
			t.Fatalf("expected 2 blocks, got %d", len(p.Blocks))
		}
		if p.Blocks[0].Kind != BlockTitle {
			t.Errorf("expected title block, got %v", p.Blocks[0].Kind)
		}
		span := p.Blocks[0].Lines[0].Spans[0]
		if span.Kind != SpanText {
			t.Errorf("span without type should be text, got %v", span.Kind)
		}
		if span.BBox == nil || span.BBox.X1 != 110 || span.BBox.PageNumber != 1 {
			t.Errorf("unexpected bbox: %+v", span.BBox)
		}
	})

	t.Run("sub-blocks decoded", func(t *testing.T) {
		b := doc.Pages[1].Blocks[0]
		if b.Kind != BlockImage {
			t.Fatalf("expected image block, got %v", b.Kind)
		}
		if len(b.SubBlocks) != 2 {
			t.Fatalf("expected 2 sub-blocks, got %d", len(b.SubBlocks))
		}
		if b.SubBlocks[0].Kind != SubBlockImageBody || b.SubBlocks[1].Kind != SubBlockImageCaption {
			t.Errorf("unexpected sub-block kinds: %v, %v", b.SubBlocks[0].Kind, b.SubBlocks[1].Kind)
		}
		if got := b.SubBlocks[0].Lines[0].Spans[0].ImagePath; got != "images/fig1.png" {
			t.Errorf("image path = %q", got)
		}
	})
}

func TestDecode_ParaBlocksPreferred(t *testing.T) {
	data := `{"pdf_info": [{
		"para_blocks": [{"type": "text", "lines": [{"spans": [{"content": "merged"}]}]}],
		"preproc_blocks": [{"type": "text", "lines": [{"spans": [{"content": "raw"}]}]}]
	}]}`
	doc, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	got := doc.Pages[0].Blocks[0].Lines[0].Spans[0].Content
	if got != "merged" {
		t.Errorf("expected para_blocks content, got %q", got)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{pdf_info`},
		{"missing pdf_info", `{"pages": []}`},
		{"pdf_info not array", `{"pdf_info": {}}`},
		{"span content not string", `{"pdf_info": [{"para_blocks": [{"type": "text", "lines": [{"spans": [{"content": 5}]}]}]}]}`},
		{"short bbox", `{"pdf_info": [{"para_blocks": [{"type": "text", "lines": [{"spans": [{"bbox": [1, 2]}]}]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidStructure) {
				t.Errorf("expected ErrInvalidStructure, got %v", err)
			}
		})
	}
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(samplePDFInfo))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := Validate(data); err != nil {
		t.Fatalf("re-encoded document fails schema: %v", err)
	}

	again, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode(re-encoded) error = %v", err)
	}
	second, _ := json.Marshal(again)
	if string(second) != string(data) {
		t.Errorf("encoding not stable:\nfirst:  %s\nsecond: %s", data, second)
	}
}

func TestDocument_UnknownTypesSurvive(t *testing.T) {
	data := `{"pdf_info": [{"para_blocks": [{"type": "list", "lines": [{"spans": [{"type": "footnote_mark", "content": "1"}]}]}]}]}`
	doc, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	b := doc.Pages[0].Blocks[0]
	if b.Kind != BlockUnknown || b.RawType != "list" {
		t.Errorf("unexpected block: kind=%v raw=%q", b.Kind, b.RawType)
	}

	out, _ := json.Marshal(doc)
	var back struct {
		PDFInfo []struct {
			ParaBlocks []struct {
				Type  string `json:"type"`
				Lines []struct {
					Spans []struct {
						Type string `json:"type"`
					} `json:"spans"`
				} `json:"lines"`
			} `json:"para_blocks"`
		} `json:"pdf_info"`
	}
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := back.PDFInfo[0].ParaBlocks[0].Type; got != "list" {
		t.Errorf("block type = %q, want list", got)
	}
	if got := back.PDFInfo[0].ParaBlocks[0].Lines[0].Spans[0].Type; got != "footnote_mark" {
		t.Errorf("span type = %q, want footnote_mark", got)
	}
}

func TestDocument_IsEmpty(t *testing.T) {
	var nilDoc *Document
	if !nilDoc.IsEmpty() {
		t.Error("nil document should be empty")
	}
	if !(&Document{Pages: []Page{{Index: 0}}}).IsEmpty() {
		t.Error("page without blocks or record should be empty")
	}
	withRecord := &Document{Pages: []Page{{Record: &PageRecord{CharCount: 3, RawText: "abc"}}}}
	if withRecord.IsEmpty() {
		t.Error("page with text record should not be empty")
	}
}
