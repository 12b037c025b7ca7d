package analysis

import (
	"fmt"
	"net/http"
)

// NetworkError reports that the analysis service could not be reached, did not answer in
// time, or answered with a non-success status.
type NetworkError struct {
	StatusCode int  // 0 when no response was received
	Timeout    bool // the request exceeded its deadline
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("analysis service answered %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case e.Timeout:
		return fmt.Sprintf("analysis service timed out: %v", e.Err)
	default:
		return fmt.Sprintf("cannot reach analysis service: %v", e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response that was received but cannot be used.
type MalformedResponseError struct {
	Path string // JSONPath of the offending value, "$" for the whole body
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed analysis response at %s: %v", e.Path, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
