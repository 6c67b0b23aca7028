// internal/models/content.go
package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

type Post struct {
	ID         string `json:"_id,omitempty"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	ImageURL   string `json:"image_url,omitempty"`
	DatePosted string `json:"date_posted,omitempty"`
}

func (p Post) Key() string { return p.ID }

// Contact interest flags submitted by the public contact form.
const (
	InterestPublicGroup  = "public_group"
	InterestPrivateGroup = "private_group"
	InterestPrivate1to1  = "private_1_1"
	InterestOther        = "other"
)

var interestLabels = map[string]string{
	InterestPublicGroup:  "Public Group",
	InterestPrivateGroup: "Private Group",
	InterestPrivate1to1:  "Private 1:1",
	InterestOther:        "Other",
}

// InterestLabel returns the display name for a contact flag.
func InterestLabel(flag string) string {
	if label, ok := interestLabels[flag]; ok {
		return label
	}
	return flag
}

// ContactInterests lists the known flags in display order.
func ContactInterests() []string {
	return []string{InterestPublicGroup, InterestPrivateGroup, InterestPrivate1to1, InterestOther}
}

// Contact is a submission from the public contact form (/api/submit).
// Every boolean field on the document is collected into Interests.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Message   string
	CreatedAt string
	Interests map[string]bool
}

func (c Contact) Key() string { return c.ID }

// HasInterest reports whether flag is set to true.
func (c Contact) HasInterest(flag string) bool {
	return c.Interests[flag]
}

// InterestFlags returns the set flags sorted by display order, unknown flags last.
func (c Contact) InterestFlags() []string {
	out := make([]string, 0, len(c.Interests))
	for flag, set := range c.Interests {
		if set {
			out = append(out, flag)
		}
	}
	order := make(map[string]int, len(interestLabels))
	for i, flag := range ContactInterests() {
		order[flag] = i
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i]]
		oj, jok := order[out[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}

func (c *Contact) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode contact: %w", err)
	}
	out := Contact{Interests: make(map[string]bool)}
	text := map[string]*string{
		"_id":       &out.ID,
		"name":      &out.Name,
		"email":     &out.Email,
		"phone":     &out.Phone,
		"message":   &out.Message,
		"createdAt": &out.CreatedAt,
	}
	for key, raw := range fields {
		if dst, ok := text[key]; ok {
			// non-string values (e.g. a numeric phone) are ignored
			_ = json.Unmarshal(raw, dst)
			continue
		}
		var flag bool
		if err := json.Unmarshal(raw, &flag); err == nil {
			out.Interests[key] = flag
		}
	}
	*c = out
	return nil
}

func (c Contact) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(c.Interests)+6)
	for flag, set := range c.Interests {
		doc[flag] = set
	}
	if c.ID != "" {
		doc["_id"] = c.ID
	}
	doc["name"] = c.Name
	doc["email"] = c.Email
	doc["phone"] = c.Phone
	doc["message"] = c.Message
	if c.CreatedAt != "" {
		doc["createdAt"] = c.CreatedAt
	}
	return json.Marshal(doc)
}
