// internal/models/ref.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ref points at another backend record. The backend sends either the bare id
// or the populated document, so both forms decode into the same value.
type Ref struct {
	ID   string
	Name string
}

func (r Ref) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

// DisplayName falls back to fallback when the reference was not populated.
func (r Ref) DisplayName(fallback string) string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return fallback
}

type populatedRef struct {
	ID          string `json:"_id"`
	ServiceName string `json:"service_name"`
	Name        string `json:"name"`
	Title       string `json:"title"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var p populatedRef
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	name := p.ServiceName
	if name == "" {
		name = p.Name
	}
	if name == "" {
		name = p.Title
	}
	*r = Ref{ID: p.ID, Name: name}
	return nil
}

// MarshalJSON sends only the id; the backend resolves references itself.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04",
	DateLayout,
}

// ParseDate accepts the ISO shapes the backend stores dates in.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate reduces a stored timestamp to its calendar date (YYYY-MM-DD).
// Unparseable values are returned trimmed but otherwise untouched.
func NormalizeDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return t.UTC().Format(DateLayout)
}
