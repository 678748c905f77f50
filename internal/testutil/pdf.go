package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TestingT is the subset of testing.T used by the file helpers.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// TextPDF creates a minimal valid PDF with one page per entry. Each page
// draws its lines top to bottom with Td moves in a standard Helvetica font.
func TextPDF(pages ...[]string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, lines := range pages {
		var stream strings.Builder
		stream.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
		for j, line := range lines {
			if j > 0 {
				stream.WriteString("0 -16 Td\n")
			}
			stream.WriteString("(" + escapePDFString(line) + ") Tj\n")
		}
		stream.WriteString("ET")

		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*i))
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String()))
	}

	return assemblePDF(objects)
}

// ImagePDF creates a one-page PDF that draws a single JPEG XObject and no text.
func ImagePDF() []byte {
	img := "\xff\xd8\xff\xe0\x00\x10JFIF\x00\xff\xd9"
	draw := "q 100 0 0 100 72 692 cm /Im1 Do Q"
	return assemblePDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>",
		fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n%s\nendstream", len(img), img),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(draw), draw),
	})
}

// CIDFontPDF creates a one-page PDF whose text uses a Type0 font with
// Identity-H encoding: each glyph is a two-byte CID and only the ToUnicode
// CMap says which character it is. CIDs 1..n map to the runes of chars in
// order; cids lists the CIDs drawn on the page.
func CIDFontPDF(chars string, cids ...int) []byte {
	var bfchar strings.Builder
	runes := []rune(chars)
	for i, r := range runes {
		fmt.Fprintf(&bfchar, "<%04X> <%04X>\n", i+1, r)
	}
	cmap := "/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n" +
		"/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n" +
		"/CMapName /Adobe-Identity-UCS def\n/CMapType 2 def\n" +
		"1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n" +
		fmt.Sprintf("%d beginbfchar\n%sendbfchar\n", len(runes), bfchar.String()) +
		"endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend"

	var hex strings.Builder
	for _, cid := range cids {
		fmt.Fprintf(&hex, "%04X", cid)
	}
	content := "BT\n/F1 12 Tf\n72 720 Td\n<" + hex.String() + "> Tj\nET"

	return assemblePDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 8 0 R >>",
		"<< /Type /Font /Subtype /Type0 /BaseFont /PaperSans /Encoding /Identity-H /DescendantFonts [5 0 R] /ToUnicode 7 0 R >>",
		"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /PaperSans /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor 6 0 R /DW 500 >>",
		"<< /Type /FontDescriptor /FontName /PaperSans /Flags 4 /FontBBox [0 -200 1000 800] /ItalicAngle 0 /Ascent 800 /Descent -200 /CapHeight 700 /StemV 80 >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(cmap), cmap),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	})
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t TestingT, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// assemblePDF numbers objects from 1 and writes a matching xref table.
func assemblePDF(objects []string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}
