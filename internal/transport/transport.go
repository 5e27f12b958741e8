// Package transport performs requests against the editing server and decides,
// from response headers, how each response body is to be read.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"darkroom/internal/ndjson"
	"darkroom/internal/progress"
)

const readChunk = 32 << 10

// Options configures a single request.
type Options struct {
	// Body is sent as JSON when non-nil.
	Body any
	// OnProgress receives download progress. It is never called after Send
	// returns.
	OnProgress progress.Func
	// Accept overrides the default Accept header.
	Accept string
}

// Client issues requests and negotiates response shapes.
type Client struct {
	http       *http.Client
	downloader Downloader
	logger     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithDownloader sets where attachments are delivered. Without one, Blob
// outcomes are returned without being stored.
func WithDownloader(d Downloader) Option {
	return func(cl *Client) { cl.downloader = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(opts ...Option) *Client {
	c := &Client{http: http.DefaultClient, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs one request. It returns a JSON, Blob, MultiStatus or Raw
// outcome, or one of *TransportError, *HTTPError and *PartialFailureError.
func (c *Client) Send(ctx context.Context, method, url string, opts Options) (Outcome, error) {
	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	accept := opts.Accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	logger := c.logger.With().Str("request_id", reqID).Str("method", method).Str("url", url).Logger()
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	// Headers are in; the body is read according to what they announce.
	shape := negotiate(resp.StatusCode, resp.Header)
	logger = logger.With().Int("status", resp.StatusCode).Stringer("shape", shape).Logger()

	reporter := progress.NewReporter(shape == ShapeMultiStatus, opts.OnProgress)
	data, err := readBody(resp, reporter)
	reporter.Close()
	if err != nil {
		logger.Debug().Err(err).Msg("reading response failed")
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	logger.Debug().Int("bytes", len(data)).Dur("elapsed", time.Since(started)).Msg("response received")

	statusText := http.StatusText(resp.StatusCode)
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Status: resp.StatusCode, StatusText: statusText, Message: errorMessage(data)}
	}

	switch shape {
	case ShapeBlob:
		blob := Blob{
			Name:        Filename(resp.Header.Get("Content-Disposition")),
			ContentType: resp.Header.Get("Content-Type"),
			Data:        data,
		}
		blob, err := c.deliver(ctx, blob, logger)
		if err != nil {
			return nil, err
		}
		return blob, nil

	case ShapeMultiStatus:
		items, err := ndjson.ParseAll(data)
		if err != nil {
			return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("decode multi-status: %w", err)}
		}
		failed := 0
		for _, item := range items {
			if item.Failed() {
				failed++
			}
		}
		outcome := MultiStatus{Items: items}
		if failed > 0 {
			logger.Warn().Int("failed", failed).Int("total", len(items)).Msg("multi-status items failed")
			return nil, &PartialFailureError{
				Status:     resp.StatusCode,
				StatusText: statusText,
				Failed:     failed,
				Total:      len(items),
				Items:      outcome,
			}
		}
		return outcome, nil

	case ShapeJSON:
		return JSON{Value: json.RawMessage(data)}, nil

	default:
		return Raw{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
	}
}

// Deliver hands a body obtained some other way to the Downloader, as if it
// had been sent as an attachment.
func (c *Client) Deliver(ctx context.Context, blob Blob) (Blob, error) {
	return c.deliver(ctx, blob, c.logger)
}

func (c *Client) deliver(ctx context.Context, blob Blob, logger zerolog.Logger) (Blob, error) {
	if c.downloader == nil {
		return blob, nil
	}
	path, err := c.downloader.Download(ctx, blob)
	if err != nil {
		return blob, fmt.Errorf("download %s: %w", blob.Name, err)
	}
	blob.Path = path
	logger.Info().Str("path", path).Msg("download saved")
	return blob, nil
}

// Ping asks the server to refresh a cached resource, ignoring the response.
func (c *Client) Ping(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "max-age=0")
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: http.MethodHead, URL: url, Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func readBody(resp *http.Response, reporter *progress.Reporter) ([]byte, error) {
	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(min(resp.ContentLength, 64<<20)))
	}
	chunk := make([]byte, readChunk)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			reporter.OnRawProgress(progress.Event{
				Loaded: int64(buf.Len()),
				Total:  resp.ContentLength,
				Body:   buf.Bytes(),
			})
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return buf.Bytes(), err
		}
	}
}
