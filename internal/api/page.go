package api

import (
	"bytes"
	"encoding/json"
)

// page decodes a list endpoint that answers either a bare array or a paged
// object whose items are under "content".
type page[T any] []T

func (p *page[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = nil
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = items
		return nil
	}
	var paged struct {
		Content []T `json:"content"`
	}
	if err := json.Unmarshal(b, &paged); err != nil {
		return err
	}
	*p = paged.Content
	return nil
}
