// internal/studioapi/multipart.go
package studioapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
)

// File is an uploaded image forwarded to the backend.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// MultipartForm collects text fields and files for entities that carry images.
type MultipartForm struct {
	fields map[string]string
	files  []File
}

func NewMultipartForm() *MultipartForm {
	return &MultipartForm{fields: make(map[string]string)}
}

func (f *MultipartForm) Set(name, value string) {
	f.fields[name] = value
}

func (f *MultipartForm) AddFile(file File) {
	f.files = append(f.files, file)
}

func (f *MultipartForm) Field(name string) string {
	return f.fields[name]
}

func (f *MultipartForm) HasFiles() bool {
	return len(f.files) > 0
}

// Encode writes the form and returns the body with its content type.
func (f *MultipartForm) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, f.fields[name]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, file := range f.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", file.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
