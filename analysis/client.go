// Package analysis implements the client of the remote analysis service.
//
// The service trains a model on the requested window and answers with the
// actual and predicted series and a few risk metrics. The client sends a
// single request, validates the answer and normalizes it into a
// foresight.AnalysisResult. It never retries.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/etnz/foresight"
)

// DefaultTimeout bounds a request when the caller's context has no earlier deadline.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps the response body read from the service.
const maxBodySize = 16 << 20

// Client calls POST {BaseURL}/predict.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
}

// NewClient returns a Client for the service at baseURL, e.g. "http://localhost:8081".
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    NewHTTPClient(""),
		Timeout: DefaultTimeout,
	}
}

// Analyze sends req to the service and returns the normalized result.
//
// It fails with a *foresight.ValidationError before any round trip if req is invalid,
// a *NetworkError if the service cannot be reached, times out or answers a non 2xx
// status, and a *MalformedResponseError if the answer lacks a required field.
func (c *Client) Analyze(ctx context.Context, req foresight.AnalysisRequest) (foresight.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return foresight.AnalysisResult{}, err
	}
	body, err := encodeRequest(req)
	if err != nil {
		return foresight.AnalysisResult{}, fmt.Errorf("encoding request %v: %w", req, err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return foresight.AnalysisResult{}, &NetworkError{Err: err}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	content, err := c.post(hreq)
	if err != nil {
		return foresight.AnalysisResult{}, err
	}
	res, err := decodeResponse(content)
	if err != nil {
		log.Printf("analysis of %v: %v", req, err)
		return foresight.AnalysisResult{}, err
	}
	if res.Ticker == "" {
		res.Ticker = req.Ticker
	}
	return res, nil
}

// post performs the request and returns the body of a 2xx answer.
func (c *Client) post(hreq *http.Request) ([]byte, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return nil, &NetworkError{Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain a little so that the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &NetworkError{StatusCode: resp.StatusCode}
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}
	return content, nil
}
