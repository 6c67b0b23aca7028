package apiutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// WriteError answers with the status and message of a HandlerError. Any
// other error is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(handlerErr.Err).Msg(handlerErr.Message)
		}
		http.Error(w, handlerErr.Message, handlerErr.Status)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RenderHTMLComponent renders component into a buffer first so a failed
// render can still answer with a clean 500. It reports whether the response
// was written.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, headers map[string]string, logMsg, errMsg string) bool {
	return RenderHTMLComponentStatus(ctx, w, http.StatusOK, component, headers, logMsg, errMsg)
}

func RenderHTMLComponentStatus(ctx context.Context, w http.ResponseWriter, status int, component templ.Component, headers map[string]string, logMsg, errMsg string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		http.Error(w, errMsg, http.StatusInternalServerError)
		return false
	}

	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to write response")
		return false
	}
	return true
}
