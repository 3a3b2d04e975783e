package spec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader and parser errors.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	// SchemaError marks a document that is outside the supported schema subset.
	SchemaError ErrorCode = "SchemaError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1users~1{userId}/get/operationId"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

func inputErr(location, format string, args ...any) *SpecError {
	return &SpecError{Code: InputError, Message: "spec: " + fmt.Sprintf(format, args...), Location: location}
}

// Settings configures how remote documents are fetched.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries is the number of attempts for 5xx, 429 and transport failures.
	MaxRetries int
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
	// AllowFileURLs permits file:// inputs.
	AllowFileURLs bool
	// MaxBytes caps the size of a fetched document.
	MaxBytes int64
}

func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		MaxBytes:    32 << 20,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileURLs(allow bool) Option    { return func(s *Settings) { s.AllowFileURLs = allow } }
func WithMaxBytes(n int64) Option            { return func(s *Settings) { s.MaxBytes = n } }

// Document is a raw API description. Root is the mapping node at the top of
// the YAML/JSON stream; it keeps key order, which Parse relies on.
type Document struct {
	Location string
	Version  int // 2 for Swagger 2.0, 3 otherwise
	Raw      []byte
	Root     *yaml.Node
}

// Load reads an API description from a filesystem path or an http/https URL.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, inputErr("", "input is empty")
	}
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" || (u.Host == "" && !strings.EqualFold(u.Scheme, "file")) {
		return loadFile(input)
	}
	switch scheme := strings.ToLower(u.Scheme); scheme {
	case "http", "https":
		raw, err := fetch(ctx, input, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("spec: fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return LoadBytes(raw, input)
	case "file":
		if !settings.AllowFileURLs {
			return nil, inputErr(input, "file:// URLs are blocked by default")
		}
		return loadFile(u.Path)
	default:
		return nil, inputErr(input, "unsupported URL scheme %q (only http/https allowed)", scheme)
	}
}

func loadFile(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: resolve path: %v", err), Location: path, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: read file: %v", err), Location: abs, Cause: err}
	}
	return LoadBytes(raw, abs)
}

// LoadBytes decodes a YAML or JSON document held in memory. location is only
// used for error messages.
func LoadBytes(raw []byte, location string) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, inputErr(location, "document is empty")
	}
	var stream yaml.Node
	if err := yaml.Unmarshal(raw, &stream); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("spec: parse document: %v", err), Location: location, Cause: err}
	}
	root := resolve(&stream)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, &SpecError{Code: ParseError, Message: "spec: parse document: top level is not a mapping", Location: location}
	}
	version := 3
	if v := mapValue(root, "swagger"); v != nil && strings.HasPrefix(strings.TrimSpace(v.Value), "2.") {
		version = 2
	}
	return &Document{Location: location, Version: version, Raw: raw, Root: root}, nil
}

// Validate runs kin-openapi's structural validation over the document.
// Swagger 2.0 documents are converted to OpenAPI 3 first. kin-openapi models
// `type` as a single string, so documents using `[T, "null"]` unions fail
// here even though Parse accepts them.
func Validate(ctx context.Context, doc *Document) error {
	if doc == nil {
		return inputErr("", "nil document")
	}
	var v3 *openapi3.T
	if doc.Version == 2 {
		var v2 openapi2.T
		if err := yaml.Unmarshal(doc.Raw, &v2); err != nil {
			return &SpecError{Code: ParseError, Message: fmt.Sprintf("spec: read swagger 2.0 document: %v", err), Location: doc.Location, Cause: err}
		}
		converted, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return &SpecError{Code: ParseError, Message: fmt.Sprintf("spec: convert swagger 2.0 to openapi 3: %v", err), Location: doc.Location, Cause: err}
		}
		v3 = converted
	} else {
		loaded, err := openapi3.NewLoader().LoadFromData(doc.Raw)
		if err != nil {
			return classify(err, doc.Location)
		}
		v3 = loaded
	}
	if err := v3.Validate(ctx); err != nil && !onlyUnresolvedRefs(err) {
		return classify(err, doc.Location)
	}
	return nil
}

// fetch GETs rawURL, retrying transient failures with exponential backoff.
func fetch(ctx context.Context, rawURL string, s Settings) ([]byte, error) {
	client := &http.Client{Timeout: s.HTTPTimeout}
	attempts := max(s.MaxRetries, 1)
	delay := s.BackoffBase
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		body, retry, err := fetchOnce(ctx, client, rawURL, s.MaxBytes)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt >= attempts {
			return nil, lastErr
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func fetchOnce(ctx context.Context, client *http.Client, rawURL string, limit int64) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, transient, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if limit <= 0 {
		body, err = io.ReadAll(resp.Body)
		return body, false, err
	}
	body, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return nil, false, fmt.Errorf("document exceeds %d bytes", limit)
	}
	return body, false, nil
}

// classify turns a kin-openapi load or validation error into a SpecError.
func classify(err error, location string) error {
	code := ValidationError
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{"unmarshal", "parse", "invalid character"} {
		if strings.Contains(lower, marker) {
			code = ParseError
			break
		}
	}
	return &SpecError{Code: code, Message: "spec: " + err.Error(), Location: location, JSONPointer: pointerOf(err), Cause: err}
}

var pointerRe = regexp.MustCompile(`#/[^\s'"]+`)

func pointerOf(err error) string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) && len(multi) > 0 {
		return pointerOf(multi[0])
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if parts := schemaErr.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if schemaErr.SchemaField != "" {
			return schemaErr.SchemaField
		}
	}
	return pointerRe.FindString(err.Error())
}

// onlyUnresolvedRefs reports validation failures that do not touch the
// subset of the document Parse reads.
func onlyUnresolvedRefs(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unresolved ref")
}
