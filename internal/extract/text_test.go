package extract

import (
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
)

// glyphs lays s out as 12pt glyphs starting at x on baseline y.
func glyphs(s string, x, y, width float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{FontSize: 12, X: x, Y: y, W: width, S: string(r)})
		x += width
	}
	return out
}

func concat(parts ...[]pdf.Text) []pdf.Text {
	var out []pdf.Text
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestTextLines(t *testing.T) {
	tests := []struct {
		name  string
		texts []pdf.Text
		want  []string
	}{
		{
			name:  "rows top to bottom",
			texts: concat(glyphs("We study X.", 72, 704, 6), glyphs("Introduction", 72, 720, 6)),
			want:  []string{"Introduction", "We study X."},
		},
		{
			name:  "small baseline shifts stay on the row",
			texts: concat(glyphs("x", 72, 700, 6), glyphs("2", 78, 703, 6), glyphs(" + y", 84, 700, 6)),
			want:  []string{"x2 + y"},
		},
		{
			name:  "glyphs sorted left to right",
			texts: concat(glyphs("world", 120, 700, 6), glyphs("Hello ", 72, 700, 6)),
			want:  []string{"Hello world"},
		},
		{
			name:  "positional gap becomes a space",
			texts: concat(glyphs("Hello", 72, 700, 6), glyphs("there", 110, 700, 6)),
			want:  []string{"Hello there"},
		},
		{
			name:  "unknown widths keep stream order",
			texts: concat(glyphs("same", 72, 700, 0), glyphs(" origin", 72, 700, 0)),
			want:  []string{"same origin"},
		},
		{
			name:  "whitespace collapsed and blank rows dropped",
			texts: concat(glyphs("  spaced    out  ", 72, 720, 6), glyphs("   ", 72, 704, 6), glyphs("end", 72, 688, 6)),
			want:  []string{"spaced out", "end"},
		},
		{
			name:  "decomposed text is NFC normalized",
			texts: glyphs("e\u0301te\u0301", 72, 700, 0),
			want:  []string{"été"},
		},
		{
			name:  "no glyphs",
			texts: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textLines(tt.texts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("textLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  a \t b  ", "a b"},
		{"bell\x07ring", "bellring"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanLine(tt.in); got != tt.want {
			t.Errorf("cleanLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
