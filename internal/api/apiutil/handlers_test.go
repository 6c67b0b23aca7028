package apiutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestRenderHTMLComponent(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>ok</p>")
		return err
	})
	recorder := httptest.NewRecorder()
	if !RenderHTMLComponent(context.Background(), recorder, component, map[string]string{"HX-Trigger": "saved"}, "log", "err") {
		t.Fatal("expected render to succeed")
	}
	if recorder.Body.String() != "<p>ok</p>" || recorder.Header().Get("HX-Trigger") != "saved" {
		t.Fatalf("unexpected response: %q %v", recorder.Body.String(), recorder.Header())
	}
	if !strings.HasPrefix(recorder.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content type = %q", recorder.Header().Get("Content-Type"))
	}
}

func TestRenderHTMLComponentFailure(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("render failed")
	})
	recorder := httptest.NewRecorder()
	if RenderHTMLComponent(context.Background(), recorder, component, nil, "log", "Failed to render page") {
		t.Fatal("expected render to fail")
	}
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "partial") {
		t.Fatal("partial output must not be written")
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	recorder := httptest.NewRecorder()
	WriteError(recorder, req, HandlerError{Status: http.StatusNotFound, Message: "Booking not found"})
	if recorder.Code != http.StatusNotFound || !strings.Contains(recorder.Body.String(), "Booking not found") {
		t.Fatalf("unexpected response: %d %q", recorder.Code, recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	WriteError(recorder, req, errors.New("hidden detail"))
	if recorder.Code != http.StatusInternalServerError || strings.Contains(recorder.Body.String(), "hidden") {
		t.Fatalf("unexpected response: %d %q", recorder.Code, recorder.Body.String())
	}
}
