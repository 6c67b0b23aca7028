// internal/models/catalog.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList decodes list fields the backend stores inconsistently: a JSON
// array, a JSON-encoded array inside a string (multipart uploads), or a
// comma separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		*l = compact(items)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	*l = ParseStringList(raw)
	return nil
}

// ParseStringList splits form input into list items.
func ParseStringList(raw string) StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return compact(items)
		}
	}
	return compact(strings.Split(raw, ","))
}

// Encoded is the JSON array text sent in multipart fields.
func (l StringList) Encoded() string {
	if l == nil {
		return "[]"
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (l StringList) Join() string {
	return strings.Join(l, ", ")
}

func compact(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

type Service struct {
	ID           string     `json:"_id,omitempty"`
	Name         string     `json:"service_name"`
	Description  string     `json:"description"`
	Image        string     `json:"image,omitempty"`
	WhatToExpect StringList `json:"what_to_expect"`
	Benefits     StringList `json:"benefits"`
	SuitableFor  StringList `json:"suitable_for"`
}

func (s Service) Key() string { return s.ID }

type Instructor struct {
	ID              string     `json:"_id,omitempty"`
	Name            string     `json:"name"`
	Bio             string     `json:"bio"`
	ExperienceLevel string     `json:"experienceLevel"`
	Specialties     StringList `json:"specialties"`
	ContactEmail    string     `json:"contactEmail"`
	ContactPhone    string     `json:"contactPhone"`
	Photo           string     `json:"photo,omitempty"`
}

func (i Instructor) Key() string { return i.ID }

// Schedule is a recurring or dated class slot taught by an instructor.
type Schedule struct {
	ID         string `json:"_id,omitempty"`
	Date       string `json:"date"`
	Day        string `json:"day"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Timezone   string `json:"timezone,omitempty"`
	Service    Ref    `json:"service"`
	Instructor Ref    `json:"instructor"`
}

func (s Schedule) Key() string { return s.ID }

type TimeSlot struct {
	ID          string `json:"_id,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Timezone    string `json:"timezone"`
	IsAvailable bool   `json:"isAvailable"`
}

func (t TimeSlot) Key() string { return t.ID }

// AvailabilityLabel is the badge text shown in the time slot table.
func (t TimeSlot) AvailabilityLabel() string {
	if t.IsAvailable {
		return "Available"
	}
	return "Unavailable"
}
