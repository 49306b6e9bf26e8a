package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// File is one file part of a multipart request.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

// Multipart is a write request carrying JSON metadata as a string field
// next to file fields.
type Multipart struct {
	MetaField string
	Meta      any
	Files     []File
}

func (m *Multipart) encode() (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if m.MetaField != "" {
		meta, err := json.Marshal(m.Meta)
		if err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", m.MetaField, err)
		}
		if err := writer.WriteField(m.MetaField, string(meta)); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Files {
		part, err := createFilePart(writer, f)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func createFilePart(w *multipart.Writer, f File) (io.Writer, error) {
	if f.ContentType == "" {
		return w.CreateFormFile(f.Field, f.Name)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
	h.Set("Content-Type", f.ContentType)
	return w.CreatePart(h)
}
