package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/yogadesk/internal/api/authz"
)

type stubSessions struct {
	operator *authz.Operator
	err      error
}

func (s stubSessions) OperatorFromRequest(http.ResponseWriter, *http.Request) (*authz.Operator, error) {
	return s.operator, s.err
}

func operatorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(authz.OperatorName(r.Context())))
	})
}

func TestWithRequestIDSetsHeaderAndContext(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected request id in context")
	}
	if recorder.Header().Get("X-Request-ID") != seen {
		t.Fatalf("header %q does not match context %q", recorder.Header().Get("X-Request-ID"), seen)
	}
}

func TestWithLoggingWithoutRequestID(t *testing.T) {
	handler := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusTeapot {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestWithRecovery(t *testing.T) {
	handler := WithRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestWithAuthAttachesOperator(t *testing.T) {
	handler := WithAuth(stubSessions{operator: &authz.Operator{Username: "admin"}})(operatorEcho())
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Body.String() != "admin" {
		t.Fatalf("operator = %q", recorder.Body.String())
	}

	handler = WithAuth(stubSessions{err: errors.New("bad cookie")})(operatorEcho())
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Body.String() != "system" {
		t.Fatalf("operator = %q, want anonymous", recorder.Body.String())
	}
}

func TestWithOperatorAuth(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		htmx         bool
		signedIn     bool
		wantStatus   int
		wantLocation string
		wantHXTarget string
	}{
		{name: "public health", path: "/health", wantStatus: http.StatusOK},
		{name: "public static", path: "/static/app.css", wantStatus: http.StatusOK},
		{name: "root redirects", path: "/", wantStatus: http.StatusSeeOther, wantLocation: "/login"},
		{name: "page keeps next", path: "/admin/bookings", wantStatus: http.StatusSeeOther, wantLocation: "/login?next=%2Fadmin%2Fbookings"},
		{name: "htmx redirect", path: "/admin/bookings/rows", htmx: true, wantStatus: http.StatusUnauthorized, wantHXTarget: "/login?next=%2Fadmin%2Fbookings%2Frows"},
		{name: "signed in", path: "/admin/bookings", signedIn: true, wantStatus: http.StatusOK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.path, nil)
			if test.htmx {
				req.Header.Set("HX-Request", "true")
			}
			if test.signedIn {
				req = req.WithContext(authz.ContextWithOperator(req.Context(), &authz.Operator{Username: "admin"}))
			}
			recorder := httptest.NewRecorder()
			WithOperatorAuth(operatorEcho()).ServeHTTP(recorder, req)

			if recorder.Code != test.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, test.wantStatus)
			}
			if test.wantLocation != "" && recorder.Header().Get("Location") != test.wantLocation {
				t.Fatalf("location = %q, want %q", recorder.Header().Get("Location"), test.wantLocation)
			}
			if test.wantHXTarget != "" && recorder.Header().Get("HX-Redirect") != test.wantHXTarget {
				t.Fatalf("HX-Redirect = %q, want %q", recorder.Header().Get("HX-Redirect"), test.wantHXTarget)
			}
		})
	}
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := ChainMiddleware(http.NotFoundHandler(), mark("inner"), mark("outer"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("order = %v", order)
	}
}
