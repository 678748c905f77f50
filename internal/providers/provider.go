package providers

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrUnavailable means the layout runtime cannot be reached or is not ready.
	// Callers treat it as a missing capability, not a document failure.
	ErrUnavailable = errors.New("layout runtime unavailable")

	// ErrRejected means the runtime refused the document itself.
	ErrRejected = errors.New("layout runtime rejected document")
)

// LayoutProvider analyzes a PDF with an external layout-and-OCR model and returns
// the page/block/span structure.
// Separate from the renderer because it owns network, timeouts and model cost.
type LayoutProvider interface {
	// Name returns the provider identifier (e.g., "mineru").
	Name() string

	// Ping checks that the runtime is up. Failure wraps ErrUnavailable.
	Ping(ctx context.Context) error

	// Analyze runs layout analysis over a whole document.
	Analyze(ctx context.Context, req *LayoutRequest) (*LayoutResult, error)
}

// LayoutRequest is one document to analyze.
type LayoutRequest struct {
	FileName string
	PDF      []byte
	OCR      bool // force OCR even for born-digital pages
}

// LayoutResult is the runtime's answer for one document.
type LayoutResult struct {
	// Structure is the {"pdf_info": [...]} JSON document.
	Structure json.RawMessage `json:"structure"`

	// Images maps file names (as referenced by span image_path values, relative
	// to the images directory) to raw image bytes.
	Images map[string][]byte `json:"-"`

	ModelUsed     string        `json:"model_used,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}
