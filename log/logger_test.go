package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithOutputWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf)
	logger.Infow("hello", "key", "value")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["message"] != "hello" {
		t.Errorf("message = %v, want hello", decoded["message"])
	}
	if decoded["key"] != "value" {
		t.Errorf("key = %v, want value", decoded["key"])
	}
}
