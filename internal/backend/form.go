package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// Upload is a file part forwarded to the backend.
type Upload struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Form builds a multipart/form-data body. Slice and object values are sent
// as JSON strings, which is what the backend expects for array fields.
type Form struct {
	fields  []formField
	uploads []Upload
	err     error
}

type formField struct {
	name  string
	value string
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set adds a plain text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// SetNumber adds a numeric field.
func (f *Form) SetNumber(name string, value float64) *Form {
	return f.Set(name, Number(value).String())
}

// SetJSON adds a field holding the JSON encoding of v.
func (f *Form) SetJSON(name string, v any) *Form {
	data, err := json.Marshal(v)
	if err != nil && f.err == nil {
		f.err = fmt.Errorf("field %s: %w", name, err)
		return f
	}
	return f.Set(name, string(data))
}

// Attach adds a file part.
func (f *Form) Attach(upload Upload) *Form {
	if upload.Content != nil {
		f.uploads = append(f.uploads, upload)
	}
	return f
}

// Value returns the first value for name, used by tests and logging.
func (f *Form) Value(name string) string {
	for _, field := range f.fields {
		if field.name == name {
			return field.value
		}
	}
	return ""
}

func (f *Form) encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, field := range f.fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}
	for _, upload := range f.uploads {
		part, err := writer.CreateFormFile(upload.Field, upload.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, upload.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
