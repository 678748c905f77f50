package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/Harsidak/papermd/internal/layout"
)

// Each artifact is replaced atomically and on its own, so a failed write
// leaves the previous version (or nothing) in place and can simply be retried.

func writeMarkdown(path, markdown string) error {
	if err := atomicwriter.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if doc, ok := v.(*layout.Document); ok && doc == nil {
		v = &layout.Document{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := atomicwriter.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
