// Package htmx holds the request and response headers the console's
// partial updates depend on.
package htmx

import (
	"net/http"
	"strings"
)

const (
	HeaderRequest  = "HX-Request"
	HeaderRedirect = "HX-Redirect"
	HeaderRetarget = "HX-Retarget"
	HeaderReswap   = "HX-Reswap"
	HeaderTrigger  = "HX-Trigger"
)

// IsRequest reports whether r came from htmx. Plain form posts and links
// get full pages and redirects instead of fragments.
func IsRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(HeaderRequest), "true")
}

// Redirect makes htmx navigate the whole page to target.
func Redirect(w http.ResponseWriter, target string) {
	w.Header().Set(HeaderRedirect, target)
}

// Swap builds the headers that send a fragment into target with the given
// swap style. A non-empty event is fired on the client after the swap.
func Swap(target, style, event string) map[string]string {
	headers := map[string]string{
		HeaderRetarget: target,
		HeaderReswap:   style,
	}
	if event != "" {
		headers[HeaderTrigger] = event
	}
	return headers
}
