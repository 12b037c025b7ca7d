package analysis

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/foresight/date"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id used to correlate client and service logs.
const RequestIDHeader = "X-Request-ID"

// loggingTransport tags every request with an id and logs its outcome.
type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		log.Printf("%v %v%v [%s] failed: %v", req.Method, req.URL.Host, req.URL.Path, id, err)
		return nil, err
	}
	log.Printf("%v %v%v [%s] %v", req.Method, req.URL.Host, req.URL.Path, id, resp.Status)
	return resp, nil
}

// diskCache implements a simple disk cache for HTTP responses.
// Entries are keyed by day, so the local tmp expires every day.
type diskCache struct {
	base http.RoundTripper
	dir  string
	// accept reports whether a successful body can be reused, nil accepts all.
	accept func(body []byte) bool
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If none is found it proceeds with the actual HTTP
// request and caches the new response if it's successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	body, err := requestBody(req)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s %s %s %x", date.Today(), req.Method, req.URL.String(), sha1.Sum(body))
	key = fmt.Sprintf("fcs-%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		log.Printf("%v %v%v served from cache", req.Method, req.URL.Host, req.URL.Path)
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	content, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(content))
	if c.accept != nil && !c.accept(content) {
		log.Printf("%v %v%v not cached: unusable response", req.Method, req.URL.Host, req.URL.Path)
		return resp, nil
	}
	// otherwise attempt to store it in cache

	err = c.put(key, resp)
	if err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	return resp, nil
}

// requestBody returns a copy of the request body without consuming it.
func requestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.GetBody == nil {
		return nil, nil
	}
	rc, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	file := filepath.Join(c.dir, key)
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	file := filepath.Join(c.dir, key)

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	_, err = f.Write(content)
	f.Close()
	return err
}

// NewHTTPClient returns the client used to reach the analysis service.
// When cacheDir is not empty, successful answers that decode to a result are
// cached there for the day.
func NewHTTPClient(cacheDir string) *http.Client {
	var rt http.RoundTripper = &loggingTransport{base: http.DefaultTransport}
	if cacheDir != "" {
		rt = &diskCache{base: rt, dir: cacheDir, accept: decodable}
	}
	return &http.Client{Transport: rt}
}

// decodable reports whether body is a usable /predict answer.
func decodable(body []byte) bool {
	_, err := decodeResponse(body)
	return err == nil
}
