// internal/studioapi/errors.go
package studioapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrMalformedResponse marks a 2xx response whose body is not JSON.
var ErrMalformedResponse = errors.New("malformed response")

const maxErrorBodyLog = 200

// FetchError is returned for transport failures, non-2xx responses and
// non-JSON bodies. Body keeps the raw response text for display.
type FetchError struct {
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		if len(body) > maxErrorBodyLog {
			body = truncateUTF8(body, maxErrorBodyLog) + "..."
		}
		fmt.Fprintf(&b, ": %s", body)
	}
	return b.String()
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the operator: the backend's own body when it
// sent one, otherwise a description of what failed.
func (e *FetchError) Message() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	return "request failed"
}

// ErrorMessage extracts the operator-facing text from any error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Message()
	}
	return err.Error()
}
