package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Harsidak/papermd/internal/extract"
	"github.com/Harsidak/papermd/internal/layout"
	"github.com/Harsidak/papermd/internal/providers"
	"github.com/Harsidak/papermd/internal/testutil"
)

func newPipeline(t *testing.T, provider providers.LayoutProvider) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	chain := extract.NewChain(nil,
		extract.NewFullStrategy(extract.FullConfig{Provider: provider}),
		extract.NewFallbackStrategy(extract.FallbackConfig{}),
	)
	p, err := New(Config{Chain: chain, OutputRoot: root})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, root
}

func readSummary(t *testing.T, path string) Summary {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("invalid summary JSON: %v", err)
	}
	return s
}

func TestPipeline_Convert_Full(t *testing.T) {
	mock := providers.NewMockLayoutProvider()
	mock.Structure = json.RawMessage(`{"pdf_info": [
		{"page_idx": 0, "para_blocks": [
			{"type": "title", "lines": [{"spans": [{"type": "text", "content": "Résumé"}]}]},
			{"type": "text", "lines": [{"spans": [{"type": "text", "content": "a <b> & c"}]}]},
			{"type": "image", "blocks": [
				{"type": "image_body", "lines": [{"spans": [{"type": "image", "image_path": "images/fig1.png"}]}]}
			]}
		]}
	]}`)
	mock.Images = map[string][]byte{"fig1.png": []byte("png")}

	p, root := newPipeline(t, mock)
	input := testutil.WriteFile(t, t.TempDir(), "paper.pdf", []byte("%PDF-1.7"))

	result, err := p.Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	outDir := filepath.Join(root, "paper")
	if result.OutputDir != outDir {
		t.Errorf("unexpected output dir: %s", result.OutputDir)
	}
	if result.Source != extract.SourceFull {
		t.Errorf("unexpected source: %s", result.Source)
	}
	if result.RunID == "" {
		t.Error("missing run id")
	}
	if result.Empty() {
		t.Error("result should not be empty")
	}

	md, err := os.ReadFile(filepath.Join(outDir, "paper.md"))
	if err != nil {
		t.Fatalf("markdown not written: %v", err)
	}
	want := "## Résumé\n\na <b> & c\n\n![Figure](images/fig1.png)"
	if string(md) != want {
		t.Errorf("markdown mismatch\ngot:  %q\nwant: %q", md, want)
	}

	info, err := os.ReadFile(filepath.Join(outDir, "paper_info.json"))
	if err != nil {
		t.Fatalf("info not written: %v", err)
	}
	for _, literal := range []string{"Résumé", "a <b> & c", "\n  \"pdf_info\""} {
		if !strings.Contains(string(info), literal) {
			t.Errorf("info JSON missing %q:\n%s", literal, info)
		}
	}
	doc, err := layout.Decode(info)
	if err != nil {
		t.Fatalf("info JSON does not decode: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Errorf("expected 1 page in info, got %d", doc.PageCount())
	}

	if _, err := os.Stat(filepath.Join(outDir, "images", "fig1.png")); err != nil {
		t.Errorf("image not written: %v", err)
	}

	s := readSummary(t, filepath.Join(outDir, "paper_summary.json"))
	if s.RunID != result.RunID || s.Source != extract.SourceFull {
		t.Errorf("summary does not match result: %+v", s)
	}
	if s.Pages != 1 || s.ImageFiles != 1 {
		t.Errorf("unexpected summary counts: %+v", s)
	}
	if s.Outline.Headings != 1 || s.Outline.ImageRefs != 1 {
		t.Errorf("unexpected outline: %+v", s.Outline)
	}
	if s.Chars != len([]rune(want)) {
		t.Errorf("summary chars = %d, want %d", s.Chars, len([]rune(want)))
	}
}

func TestPipeline_Convert_Fallback(t *testing.T) {
	mock := providers.NewMockLayoutProvider()
	mock.PingErr = fmt.Errorf("%w: connection refused", providers.ErrUnavailable)

	p, root := newPipeline(t, mock)
	input := testutil.WriteFile(t, t.TempDir(), "notes.pdf", testutil.TextPDF(
		[]string{"Overview", "First page body."},
		[]string{"Details", "Second page body."},
	))

	result, err := p.Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if result.Source != extract.SourceFallback {
		t.Errorf("expected fallback source, got %s", result.Source)
	}
	if !strings.HasPrefix(result.Markdown, "# notes\n\n") {
		t.Errorf("markdown should start with the document heading: %q", result.Markdown)
	}
	if result.PageCount != 2 {
		t.Errorf("expected 2 pages, got %d", result.PageCount)
	}

	s := readSummary(t, result.SummaryPath)
	if s.Outline.Headings != 3 {
		t.Errorf("expected 3 headings, got %d", s.Outline.Headings)
	}
	if s.Source != extract.SourceFallback {
		t.Errorf("unexpected summary source: %s", s.Source)
	}

	data, err := os.ReadFile(filepath.Join(root, "notes", "notes_info.json"))
	if err != nil {
		t.Fatalf("info not written: %v", err)
	}
	if !strings.Contains(string(data), `"raw_text": "Overview\nFirst page body."`) {
		t.Errorf("info JSON missing page record:\n%s", data)
	}
}

func TestPipeline_Convert_Empty(t *testing.T) {
	p, _ := newPipeline(t, nil)
	input := testutil.WriteFile(t, t.TempDir(), "blank.pdf", testutil.TextPDF(nil))

	result, err := p.Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected empty result, got %q", result.Markdown)
	}
	data, err := os.ReadFile(result.MarkdownPath)
	if err != nil || len(data) != 0 {
		t.Errorf("expected empty markdown file, got %q (%v)", data, err)
	}
	if s := readSummary(t, result.SummaryPath); !s.Empty {
		t.Error("summary should flag the empty document")
	}
}

func TestPipeline_Convert_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		p, root := newPipeline(t, nil)
		_, err := p.Convert(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
		if !errors.Is(err, extract.ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "gone")); !os.IsNotExist(err) {
			t.Error("output directory created for a missing input")
		}
	})

	t.Run("corrupt input", func(t *testing.T) {
		p, _ := newPipeline(t, nil)
		input := testutil.WriteFile(t, t.TempDir(), "bad.pdf", []byte("garbage"))
		if _, err := p.Convert(context.Background(), input); !errors.Is(err, extract.ErrCorruptInput) {
			t.Errorf("expected ErrCorruptInput, got %v", err)
		}
	})

	t.Run("failed markdown write leaves json intact", func(t *testing.T) {
		p, root := newPipeline(t, nil)
		input := testutil.WriteFile(t, t.TempDir(), "doc.pdf", testutil.TextPDF([]string{"Title", "Body."}))

		// A directory where the Markdown file should go makes that write fail.
		if err := os.MkdirAll(filepath.Join(root, "doc", "doc.md"), 0o755); err != nil {
			t.Fatal(err)
		}

		if _, err := p.Convert(context.Background(), input); err == nil {
			t.Fatal("expected write error")
		}
		data, err := os.ReadFile(filepath.Join(root, "doc", "doc_info.json"))
		if err != nil {
			t.Fatalf("info JSON should still be written: %v", err)
		}
		if _, err := layout.Decode(data); err != nil {
			t.Errorf("info JSON is not complete: %v", err)
		}
	})
}

func TestPipeline_Convert_Concurrent(t *testing.T) {
	p, root := newPipeline(t, nil)
	dir := t.TempDir()

	var inputs []string
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("doc%d.pdf", i)
		inputs = append(inputs, testutil.WriteFile(t, dir, name, testutil.TextPDF([]string{fmt.Sprintf("Doc %d", i), "Body."})))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(inputs))
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in string) {
			defer wg.Done()
			_, errs[i] = p.Convert(context.Background(), in)
		}(i, in)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("doc%d: %v", i, err)
		}
		md, err := os.ReadFile(filepath.Join(root, fmt.Sprintf("doc%d", i), fmt.Sprintf("doc%d.md", i)))
		if err != nil {
			t.Fatalf("doc%d markdown missing: %v", i, err)
		}
		if !strings.Contains(string(md), fmt.Sprintf("## Doc %d", i)) {
			t.Errorf("doc%d has wrong content: %q", i, md)
		}
	}
}

func TestPipeline_Convert_SameBaseName(t *testing.T) {
	p, root := newPipeline(t, nil)
	dir := t.TempDir()
	for _, sub := range []string{"a", "b", "c"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	inputs := []string{
		testutil.WriteFile(t, filepath.Join(dir, "a"), "paper.pdf", testutil.TextPDF([]string{"Alpha paper body."})),
		testutil.WriteFile(t, filepath.Join(dir, "b"), "paper.pdf", testutil.TextPDF([]string{"Beta paper body."})),
		testutil.WriteFile(t, filepath.Join(dir, "c"), "Paper.pdf", testutil.TextPDF([]string{"Gamma paper body."})),
	}

	results := make([]*Result, len(inputs))
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in string) {
			defer wg.Done()
			results[i], errs[i] = p.Convert(context.Background(), in)
		}(i, in)
	}
	wg.Wait()

	dirs := make(map[string]bool)
	for i, r := range results {
		if errs[i] != nil {
			t.Fatalf("input %d: %v", i, errs[i])
		}
		if dirs[strings.ToLower(r.OutputDir)] {
			t.Errorf("output directory %s reused", r.OutputDir)
		}
		dirs[strings.ToLower(r.OutputDir)] = true
		if r.ElapsedSeconds <= 0 || r.ElapsedSeconds != r.Elapsed.Seconds() {
			t.Errorf("elapsed_seconds %v does not match elapsed %v", r.ElapsedSeconds, r.Elapsed)
		}

		if filepath.Dir(r.OutputDir) != root {
			t.Errorf("output %s is not under %s", r.OutputDir, root)
		}
		md, err := os.ReadFile(r.MarkdownPath)
		if err != nil {
			t.Fatalf("markdown missing: %v", err)
		}
		if string(md) != r.Markdown {
			t.Errorf("%s holds %q, result says %q", r.MarkdownPath, md, r.Markdown)
		}
	}

	names := []string{
		filepath.Base(results[0].OutputDir),
		filepath.Base(results[1].OutputDir),
		filepath.Base(results[2].OutputDir),
	}
	want := map[string]bool{"paper": true, "paper-2": true, "paper-3": true, "Paper-2": true, "Paper-3": true, "Paper": true}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected output name %q", n)
		}
	}

	t.Run("sequential reuse gets a new directory", func(t *testing.T) {
		again, err := p.Convert(context.Background(), inputs[0])
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(again.OutputDir) != "paper-4" {
			t.Errorf("expected paper-4, got %s", filepath.Base(again.OutputDir))
		}
		if filepath.Base(again.MarkdownPath) != "paper-4.md" {
			t.Errorf("unexpected markdown path %s", again.MarkdownPath)
		}
	})
}

func TestResult_JSON(t *testing.T) {
	r := &Result{RunID: "r1", Elapsed: 1500 * time.Millisecond, ElapsedSeconds: 1.5, Markdown: "hidden"}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["elapsed_seconds"] != 1.5 {
		t.Errorf("elapsed_seconds = %v", fields["elapsed_seconds"])
	}
	for _, key := range []string{"elapsed", "Elapsed", "Markdown"} {
		if _, ok := fields[key]; ok {
			t.Errorf("unexpected key %q in %s", key, data)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{OutputRoot: "/tmp"}); err == nil {
		t.Error("expected error without chain")
	}
	if _, err := New(Config{Chain: extract.NewChain(nil)}); err == nil {
		t.Error("expected error without output root")
	}
}

func TestParseOutline(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     Outline
	}{
		{"empty", "", Outline{}},
		{"headings", "# A\n\n## B\n\ntext\n\n**not a heading**", Outline{Headings: 2}},
		{"images", "![Figure](images/a.png)\n\n*caption*\n\n---\n\n![Table](images/b.png)", Outline{ImageRefs: 2}},
		{"page separator is not a setext heading", "para\n\n---\n\nnext", Outline{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOutline(tt.markdown); got != tt.want {
				t.Errorf("ParseOutline() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
