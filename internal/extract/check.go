package extract

import (
	"fmt"
	"os"
	"path/filepath"
)

// PDFInfo describes a PDF that passed CheckPDF.
type PDFInfo struct {
	Path      string `json:"path" yaml:"path"`
	Size      int64  `json:"size" yaml:"size"`
	PageCount int    `json:"page_count" yaml:"page_count"`
}

// CheckPDF rejects files that cannot be processed: unreadable or malformed
// structure, encryption, or zero pages. Rejections wrap ErrCorruptInput and
// carry a reason suitable for showing to whoever supplied the file.
func CheckPDF(path string) (*PDFInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}

	pctx, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if pctx.Encrypt != nil {
		return nil, fmt.Errorf("%w: %s is encrypted; remove password protection", ErrCorruptInput, name)
	}
	if pctx.PageCount == 0 {
		return nil, fmt.Errorf("%w: %s contains zero pages", ErrCorruptInput, name)
	}

	return &PDFInfo{
		Path:      path,
		Size:      st.Size(),
		PageCount: pctx.PageCount,
	}, nil
}
