package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "http://localhost:5000/api"
	downloadPath   = "/download_pdf"

	// maxResponseBytes bounds JSON bodies; captcha images are the largest
	// payload the backend sends.
	maxResponseBytes = 8 << 20
)

// Transport performs one JSON round trip against the backend.
type Transport interface {
	PostJSON(ctx context.Context, path string, payload any) ([]byte, error)
}

// Client talks HTTP/JSON to the scraping backend.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every round trip. Backend calls drive a real browser,
// so the default is generous.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
		tracer:  otel.Tracer("ecourts-fetcher/pkg/fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON posts payload to path and returns the raw JSON body. Any JSON body
// is returned whatever the status code, because the backend reports some
// errors as 4xx with an "error" field. A body that is not JSON is a
// TransportError.
func (c *Client) PostJSON(ctx context.Context, p string, payload any) ([]byte, error) {
	op := "POST " + p
	ctx, span := c.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodPost),
		attribute.String("url.path", p),
	)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+p, bytes.NewReader(data))
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: op, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: op, Err: err})
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err})
	}
	if !json.Valid(body) {
		return nil, c.fail(span, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response is not JSON"),
		})
	}
	return body, nil
}

// Download is an open file stream from the backend's download endpoint.
// The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// Download fetches the artifact a DocumentReady or ArchiveReady outcome
// points at.
func (c *Client) Download(ctx context.Context, reference string) (*Download, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, newValidationError("download reference is required")
	}

	op := "GET " + downloadPath
	ctx, span := c.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	u := c.baseURL + downloadPath + "?" + url.Values{"path": {reference}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: op, Err: err})
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: op, Err: err})
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, c.fail(span, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("download failed: %s", strings.TrimSpace(string(msg))),
		})
	}

	return &Download{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Filename:      path.Base(strings.ReplaceAll(reference, "\\", "/")),
	}, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ArchivePath resolves a bare archive name returned by the CNR workflow
// against the backend's download directory. Absolute references pass through.
func ArchivePath(downloadDir, reference string) string {
	if downloadDir == "" || path.IsAbs(reference) || strings.ContainsAny(reference, "/\\") {
		return reference
	}
	return strings.TrimRight(downloadDir, "/\\") + "/" + reference
}
