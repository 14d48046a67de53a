// Package transport sends compiled operation requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/joeshaw/envdecode"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// Encoding selects how a request body is written on the wire.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingForm
	EncodingMultipart
)

func (e Encoding) String() string {
	switch e {
	case EncodingForm:
		return "form"
	case EncodingMultipart:
		return "multipart"
	default:
		return "json"
	}
}

// Request is a single outbound call.
type Request struct {
	Method   string            `json:"method"`
	URL      string            `json:"url"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     any               `json:"body,omitempty"`
	Encoding Encoding          `json:"-"`
}

// Response is the result of a call with a 2xx status.
type Response struct {
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"-"`
	// Data is the decoded payload: parsed JSON for JSON responses, otherwise
	// the body as a string. Empty bodies decode to nil.
	Data     any           `json:"data"`
	Duration time.Duration `json:"duration"`
}

// Transport executes requests.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
}

// Config holds transport defaults. ConfigFromEnv fills it from the process
// environment.
type Config struct {
	// Timeout per request. ENV: APMAN_HTTP_TIMEOUT
	Timeout time.Duration `env:"APMAN_HTTP_TIMEOUT,default=30s"`
	// UserAgent sent when the caller sets none. ENV: APMAN_USER_AGENT
	UserAgent string `env:"APMAN_USER_AGENT,default=apman"`
}

// ConfigFromEnv decodes Config from the environment.
func ConfigFromEnv() Config {
	var cfg Config
	_ = envdecode.Decode(&cfg)
	return cfg
}

var _ Transport = (*HTTPTransport)(nil)

// HTTPTransport is the default Transport backed by net/http.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTPTransport) {
		if l != nil {
			t.log = l
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// NewHTTPTransport creates a transport from cfg. Zero fields fall back to a
// 30s timeout and the "apman" user agent.
func NewHTTPTransport(cfg Config, opts ...Option) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "apman"
	}

	t := &HTTPTransport{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send performs the request. Non-2xx responses return a *StatusError.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	bodyReader, contentType, err := encodeBody(req.Body, req.Encoding)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json, */*")
	httpReq.Header.Set("User-Agent", t.userAgent)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	t.log.DebugContext(ctx, "http.request", "method", httpReq.Method, "url", req.URL, "encoding", req.Encoding.String())

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		t.log.DebugContext(ctx, "http.error", "method", httpReq.Method, "url", req.URL, "err", err)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	duration := time.Since(startTime)
	t.log.DebugContext(ctx, "http.response", "status", httpResp.StatusCode, "duration_ms", duration.Milliseconds(), "bytes", len(bodyBytes))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	headers := make(map[string]string)
	for key, values := range httpResp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	data, err := decodeBody(httpResp.Header.Get("Content-Type"), bodyBytes)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       bodyBytes,
		Data:       data,
		Duration:   duration,
	}, nil
}

func encodeBody(body any, enc Encoding) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}

	switch enc {
	case EncodingForm:
		fields, err := formFields(body)
		if err != nil {
			return nil, "", err
		}
		values := url.Values{}
		for _, f := range fields {
			values.Set(f.key, f.value)
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil

	case EncodingMultipart:
		fields, err := formFields(body)
		if err != nil {
			return nil, "", err
		}
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range fields {
			if err := w.WriteField(f.key, f.value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %q: %w", f.key, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil

	default:
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal body: %w", err)
		}
		return bytes.NewBuffer(jsonBody), "application/json", nil
	}
}

type formField struct {
	key, value string
}

// formFields flattens a body object into sorted key/value pairs. Any map with
// string keys is accepted. Scalars are written with fmt.Sprint, anything else
// as JSON.
func formFields(body any) ([]formField, error) {
	rv := reflect.ValueOf(body)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("form bodies must be objects, got %T", body)
	}

	fields := make([]formField, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		v, err := formValue(iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("failed to encode form field %q: %w", k, err)
		}
		fields = append(fields, formField{k, v})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })
	return fields, nil
}

func formValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}

func decodeBody(contentType string, body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	if isJSON(contentType) {
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return v, nil
	}
	return string(body), nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt := contenttype.NewMediaType(contentType)
	return mt.Matches(jsonMediaType) || strings.HasSuffix(mt.Subtype, "+json")
}

// Format renders the response for display.
func (r *Response) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Status: %s (%dms)\n\n", r.Status, r.Duration.Milliseconds()))

	sb.WriteString("Headers:\n")
	keys := make([]string, 0, len(r.Headers))
	for key := range r.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", key, r.Headers[key]))
	}
	sb.WriteString("\n")

	// Body (try to pretty-print JSON)
	sb.WriteString("Body:\n")
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, r.Body, "", "  "); err == nil {
		sb.WriteString(prettyJSON.String())
	} else {
		sb.Write(r.Body)
	}

	return sb.String()
}
