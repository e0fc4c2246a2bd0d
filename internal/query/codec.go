package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeValue returns the JSON literal of v as written into a query value.
// HTML characters are left unescaped.
func EncodeValue(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// DecodeValue parses raw as a JSON literal. When raw is not valid JSON the
// raw string itself is returned and ok is false.
func DecodeValue(raw string) (value any, ok bool) {
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw, false
	}

	return value, true
}
