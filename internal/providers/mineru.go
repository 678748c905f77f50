package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	MinerUName           = "mineru"
	MinerUDefaultURL     = "http://127.0.0.1:8000"
	MinerUDefaultModel   = "pipeline"
	minerUParsePath      = "/file_parse"
	minerUSchemaPath     = "/openapi.json"
	minerUDefaultTimeout = 600 * time.Second
)

// MinerUConfig holds configuration for the MinerU layout client.
type MinerUConfig struct {
	BaseURL       string
	APIKey        string
	Model         string // mineru-api backend (default: pipeline)
	Timeout       time.Duration
	HealthRetries uint          // Health check attempts (default: 3)
	HealthDelay   time.Duration // Delay between health checks (default: 1s)
	HTTPClient    *http.Client  // Optional, mainly for tests
}

// MinerUClient implements LayoutProvider against the mineru-api server
// (`mineru-api --host 0.0.0.0 --port 8000`). Documents are uploaded to the
// multipart POST /file_parse endpoint with return_middle_json and
// return_images set; the middle JSON carries the pdf_info page list.
// Model selects the server backend (pipeline, vlm-transformers, ...).
type MinerUClient struct {
	baseURL       string
	apiKey        string
	model         string
	healthRetries uint
	healthDelay   time.Duration
	client        *http.Client
}

// NewMinerUClient creates a new MinerU client.
func NewMinerUClient(cfg MinerUConfig) *MinerUClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MinerUDefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = MinerUDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = minerUDefaultTimeout
	}
	if cfg.HealthRetries == 0 {
		cfg.HealthRetries = 3
	}
	if cfg.HealthDelay == 0 {
		cfg.HealthDelay = time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &MinerUClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		healthRetries: cfg.HealthRetries,
		healthDelay:   cfg.HealthDelay,
		client:        client,
	}
}

// Name returns the provider identifier.
func (c *MinerUClient) Name() string {
	return MinerUName
}

// BaseURL returns the server address.
func (c *MinerUClient) BaseURL() string {
	return c.baseURL
}

// Ping checks that the server is up and serves /file_parse. mineru-api has no
// health route, so Ping reads the FastAPI schema instead, retrying until
// attempts run out.
func (c *MinerUClient) Ping(ctx context.Context) error {
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+minerUSchemaPath, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			c.authorize(req)
			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
			}

			var schema struct {
				Paths map[string]json.RawMessage `json:"paths"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
				return fmt.Errorf("unreadable API schema: %w", err)
			}
			if _, ok := schema.Paths[minerUParsePath]; !ok {
				return retry.Unrecoverable(fmt.Errorf("server does not expose %s", minerUParsePath))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.healthRetries),
		retry.Delay(c.healthDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, c.baseURL, err)
	}
	return nil
}

// Analyze uploads the PDF and returns the layout structure and extracted images.
func (c *MinerUClient) Analyze(ctx context.Context, lr *LayoutRequest) (*LayoutResult, error) {
	start := time.Now()

	fileName := lr.FileName
	if fileName == "" {
		fileName = "document.pdf"
	}
	parseMethod := "auto"
	if lr.OCR {
		parseMethod = "ocr"
	}
	form := minerUForm{
		fileName: fileName,
		pdf:      lr.PDF,
		fields: [][2]string{
			{"backend", c.model},
			{"parse_method", parseMethod},
			{"return_md", "false"},
			{"return_middle_json", "true"},
			{"return_images", "true"},
		},
	}

	resp, err := c.doRequest(ctx, minerUParsePath, form)
	if err != nil {
		return nil, err
	}
	doc, err := resp.document(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	if err != nil {
		return nil, err
	}

	middle, err := doc.middleJSON()
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		PDFInfo json.RawMessage `json:"pdf_info"`
	}
	if err := json.Unmarshal(middle, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse middle_json: %w", err)
	}
	if len(wrapped.PDFInfo) == 0 || string(wrapped.PDFInfo) == "null" {
		return nil, fmt.Errorf("MinerU response has no pdf_info")
	}
	structure, err := json.Marshal(wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap pdf_info: %w", err)
	}

	images := make(map[string][]byte, len(doc.Images))
	for name, uri := range doc.Images {
		data, err := decodeDataURI(uri)
		if err != nil {
			// Keep the name so the caller can log the miss; the bytes are unusable.
			images[name] = nil
			continue
		}
		images[name] = data
	}

	model := resp.Backend
	if model == "" {
		model = c.model
	}
	return &LayoutResult{
		Structure:     structure,
		Images:        images,
		ModelUsed:     model,
		ExecutionTime: time.Since(start),
	}, nil
}

// doRequest posts a multipart form to the MinerU server.
func (c *MinerUClient) doRequest(ctx context.Context, path string, form minerUForm) (*minerUResponse, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp minerUErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			if m := errResp.message(); m != "" {
				msg = m
			}
		}
		return nil, fmt.Errorf("%w (status %d): %s", classifyStatus(resp.StatusCode), resp.StatusCode, msg)
	}

	var out minerUResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &out, nil
}

func (c *MinerUClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// errServer covers statuses that are neither availability nor document problems.
var errServer = errors.New("MinerU error")

func classifyStatus(status int) error {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout,
		http.StatusNotFound, http.StatusNotImplemented:
		return ErrUnavailable
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity,
		http.StatusRequestEntityTooLarge:
		return ErrRejected
	default:
		return errServer
	}
}

// decodeDataURI accepts "data:<mime>;base64,<payload>" or bare base64.
func decodeDataURI(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 || !strings.HasSuffix(s[:i], ";base64") {
			return nil, fmt.Errorf("unsupported data URI")
		}
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

// MinerU API types

type minerUForm struct {
	fileName string
	pdf      []byte
	fields   [][2]string
}

func (f minerUForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("files", f.fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.pdf); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

type minerUResponse struct {
	Backend string                    `json:"backend"`
	Version string                    `json:"version"`
	Results map[string]minerUDocument `json:"results"`
}

// document returns the result for stem, or the only result when the server
// keyed it differently.
func (r *minerUResponse) document(stem string) (*minerUDocument, error) {
	if doc, ok := r.Results[stem]; ok {
		return &doc, nil
	}
	if len(r.Results) == 1 {
		for _, doc := range r.Results {
			return &doc, nil
		}
	}
	keys := make([]string, 0, len(r.Results))
	for k := range r.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, fmt.Errorf("MinerU response has no result for %q (got %v)", stem, keys)
}

type minerUDocument struct {
	// MiddleJSON is either the middle JSON object or that object serialized
	// into a string, depending on the server version.
	MiddleJSON json.RawMessage   `json:"middle_json"`
	Images     map[string]string `json:"images,omitempty"` // name -> data URI
}

func (d *minerUDocument) middleJSON() ([]byte, error) {
	raw := bytes.TrimSpace(d.MiddleJSON)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("MinerU response has no middle_json")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to parse middle_json: %w", err)
		}
		return []byte(s), nil
	}
	return raw, nil
}

type minerUErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// message returns the FastAPI detail (a string or a validation error list) or
// mineru-api's error field.
func (e minerUErrorResponse) message() string {
	if e.Error != "" {
		return e.Error
	}
	var detail string
	if json.Unmarshal(e.Detail, &detail) == nil {
		return detail
	}
	return string(e.Detail)
}

// Verify interface
var _ LayoutProvider = (*MinerUClient)(nil)
