package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const (
	// rowTolerance is the vertical distance, as a fraction of the font size,
	// within which glyphs belong to the same row.
	rowTolerance = 0.4
	// wordGap is the horizontal gap, as a fraction of the font size, read as
	// a word break between two glyphs that carry no explicit space.
	wordGap = 0.25
)

type textRow struct {
	y      float64
	glyphs []pdf.Text
}

// textLines groups positioned glyphs into rows, top to bottom, and returns
// each row as a cleaned line. Empty rows are dropped.
func textLines(texts []pdf.Text) []string {
	var rows []*textRow
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		row := findRow(rows, t)
		if row == nil {
			row = &textRow{y: t.Y}
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, t)
	}

	// PDF user space grows upwards.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := cleanLine(row.text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func findRow(rows []*textRow, t pdf.Text) *textRow {
	tol := t.FontSize * rowTolerance
	if tol < 1 {
		tol = 1
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if d := rows[i].y - t.Y; d <= tol && d >= -tol {
			return rows[i]
		}
	}
	return nil
}

// text joins the row's glyphs left to right. Glyphs without a known width
// keep their content-stream order.
func (r *textRow) text() string {
	glyphs := r.glyphs
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var sb strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if prev.W > 0 && gap > g.FontSize*wordGap && !endsWithSpace(prev.S) && !startsWithSpace(g.S) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return sb.String()
}

func endsWithSpace(s string) bool {
	return strings.TrimRightFunc(s, unicode.IsSpace) != s
}

func startsWithSpace(s string) bool {
	return strings.TrimLeftFunc(s, unicode.IsSpace) != s
}

// cleanLine collapses whitespace runs, drops control characters and
// normalizes to NFC.
func cleanLine(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			prevSpace = true
		case unicode.IsPrint(r) || unicode.Is(unicode.Mn, r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(norm.NFC.String(sb.String()))
}
