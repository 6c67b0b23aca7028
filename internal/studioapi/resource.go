// internal/studioapi/resource.go
package studioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoSearchEndpoint is returned by Search on resources without a search route.
var ErrNoSearchEndpoint = errors.New("resource has no search endpoint")

// Codec converts between a console type and the backend's wire shape.
// Form is optional and only used when files are attached to a write.
type Codec[T any] struct {
	Decode func(json.RawMessage) (T, error)
	Encode func(T) (any, error)
	Form   func(T) map[string]string
}

// JSONCodec decodes and encodes T with its own json tags.
func JSONCodec[T any]() Codec[T] {
	return Codec[T]{
		Decode: func(raw json.RawMessage) (T, error) {
			var v T
			err := json.Unmarshal(raw, &v)
			return v, err
		},
		Encode: func(v T) (any, error) {
			return v, nil
		},
	}
}

// Resource is one backend collection such as /api/bookings.
type Resource[T any] struct {
	client     *Client
	path       string
	searchPath string
	codec      Codec[T]
}

func NewResource[T any](client *Client, path string, codec Codec[T]) *Resource[T] {
	if codec.Decode == nil || codec.Encode == nil {
		def := JSONCodec[T]()
		if codec.Decode == nil {
			codec.Decode = def.Decode
		}
		if codec.Encode == nil {
			codec.Encode = def.Encode
		}
	}
	return &Resource[T]{
		client: client,
		path:   "/" + strings.Trim(path, "/"),
		codec:  codec,
	}
}

// WithSearch enables Search against path (for example /api/book-class/search).
func (r *Resource[T]) WithSearch(path string) *Resource[T] {
	r.searchPath = "/" + strings.Trim(path, "/")
	return r
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List fetches the collection. query is passed through as-is.
func (r *Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	return r.list(ctx, r.path, query)
}

// Search fetches the backend's server-side search results.
func (r *Resource[T]) Search(ctx context.Context, query url.Values) ([]T, error) {
	if r.searchPath == "" {
		return nil, ErrNoSearchEndpoint
	}
	return r.list(ctx, r.searchPath, query)
}

func (r *Resource[T]) list(ctx context.Context, path string, query url.Values) ([]T, error) {
	data, err := r.client.Do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	raws, err := collectionItems(data)
	if err != nil {
		return nil, &FetchError{Method: http.MethodGet, Path: path, Body: string(data), Err: errors.Join(ErrMalformedResponse, err)}
	}
	items := make([]T, 0, len(raws))
	for i, raw := range raws {
		item, err := r.codec.Decode(raw)
		if err != nil {
			return nil, &FetchError{Method: http.MethodGet, Path: path, Err: fmt.Errorf("%w: item %d: %v", ErrMalformedResponse, i, err)}
		}
		items = append(items, item)
	}
	return items, nil
}

// Create posts item. The returned bool is false when the backend answered
// without a decodable document.
func (r *Resource[T]) Create(ctx context.Context, item T, files ...File) (T, bool, error) {
	return r.write(ctx, http.MethodPost, r.path, item, files)
}

// Update replaces the record with id.
func (r *Resource[T]) Update(ctx context.Context, id string, item T, files ...File) (T, bool, error) {
	if strings.TrimSpace(id) == "" {
		var zero T
		return zero, false, fmt.Errorf("update %s: id is required", r.path)
	}
	return r.write(ctx, http.MethodPut, r.itemPath(id), item, files)
}

type statusBody struct {
	Status string `json:"status"`
}

// SetStatus sends PATCH <path>/<id>/status.
func (r *Resource[T]) SetStatus(ctx context.Context, id, status string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("set status %s: id is required", r.path)
	}
	return r.client.SendJSON(ctx, http.MethodPatch, r.itemPath(id)+"/status", statusBody{Status: status}, nil)
}

// UpdateFields sends a partial document with PUT <path>/<id>; the backend
// merges it (the time slot availability toggle relies on this).
func (r *Resource[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("update %s: id is required", r.path)
	}
	return r.client.SendJSON(ctx, http.MethodPut, r.itemPath(id), fields, nil)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete %s: id is required", r.path)
	}
	_, err := r.client.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, "")
	return err
}

func (r *Resource[T]) write(ctx context.Context, method, path string, item T, files []File) (T, bool, error) {
	var zero T
	var raw json.RawMessage

	if len(files) > 0 && r.codec.Form != nil {
		form := NewMultipartForm()
		for name, value := range r.codec.Form(item) {
			form.Set(name, value)
		}
		for _, file := range files {
			form.AddFile(file)
		}
		if err := r.client.SendMultipart(ctx, method, path, form, &raw); err != nil {
			return zero, false, err
		}
	} else {
		payload, err := r.codec.Encode(item)
		if err != nil {
			return zero, false, fmt.Errorf("encode %s: %w", path, err)
		}
		if err := r.client.SendJSON(ctx, method, path, payload, &raw); err != nil {
			return zero, false, err
		}
	}

	doc := documentFromResponse(raw)
	if doc == nil {
		return zero, false, nil
	}
	out, err := r.codec.Decode(doc)
	if err != nil {
		return zero, false, nil
	}
	return out, true, nil
}

var envelopeKeys = []string{"data", "items", "results"}

// collectionItems accepts a bare array or an object wrapping one.
func collectionItems(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	for _, key := range envelopeKeys {
		if raw, ok := envelope[key]; ok {
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
	}
	for _, raw := range envelope {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &items); err == nil {
				return items, nil
			}
		}
	}
	return nil, fmt.Errorf("expected a JSON array")
}

// documentFromResponse picks the saved document out of a write response:
// either the document itself or an object wrapping it (data, booking, ...).
func documentFromResponse(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	if _, ok := fields["_id"]; ok {
		return raw
	}
	for _, nested := range fields {
		nested = bytes.TrimSpace(nested)
		if len(nested) == 0 || nested[0] != '{' {
			continue
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			if _, ok := inner["_id"]; ok {
				return nested
			}
		}
	}
	return nil
}
