package store

import (
	"encoding/json"

	"github.com/jward/buildgraph/internal/model"
)

// marshalStrings converts []string to JSON text for storage.
func marshalStrings(vals []string) string {
	if len(vals) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(vals)
	return string(b)
}

// unmarshalStrings converts JSON text back to []string. Empty lists come
// back as nil so that a round trip preserves the model's zero values.
func unmarshalStrings(s string) []string {
	if s == "" || s == "null" || s == "[]" {
		return nil
	}
	var vals []string
	_ = json.Unmarshal([]byte(s), &vals)
	return vals
}

func marshalSettings(st model.Settings) (string, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalSettings(s string) (model.Settings, error) {
	var st model.Settings
	if s == "" {
		return st, nil
	}
	err := json.Unmarshal([]byte(s), &st)
	return st, err
}

// nullable maps "" to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
