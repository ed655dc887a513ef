package content

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is a display string that also accepts numbers and booleans when
// decoding, so hand edited documents with `"ticket": 123` still load.
type Text string

func (t Text) String() string { return string(t) }

// Blank reports whether the text is empty after trimming.
func (t Text) Blank() bool { return strings.TrimSpace(string(t)) == "" }

// Or returns t, or fallback when t is empty.
func (t Text) Or(fallback string) string {
	if t == "" {
		return fallback
	}
	return string(t)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		*t = ""
		return nil
	}
	// numbers and booleans keep their literal form
	*t = Text(trimmed)
	return nil
}
