package api

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// join builds a relative API path, escaping every segment.
func join(segs ...string) string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = url.PathEscape(s)
	}
	return strings.Join(out, "/")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// ackMessage extracts the confirmation text of endpoints that answer with
// {"message": ...}, a JSON string or plain text.
func ackMessage(raw []byte) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
