package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const indent = "    "

// Encode writes records as a pretty-printed JSON array.
func Encode(w io.Writer, records []*Node) error {
	if records == nil {
		records = []*Node{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	return nil
}

// Marshal returns the pretty-printed JSON form of records.
func Marshal(records []*Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a JSON array of records.
func Decode(r io.Reader) ([]*Node, error) {
	var records []*Node
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode capture: %w", err)
	}
	for i, n := range records {
		if n == nil {
			return nil, fmt.Errorf("failed to decode capture: record %d is null", i)
		}
	}
	return records, nil
}

// ReadFile decodes the stash file at path.
func ReadFile(path string) ([]*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
