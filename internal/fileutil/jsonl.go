package fileutil

import (
	"bufio"
	"bytes"
	"encoding/json"
)

// EncodeJSONL renders records as one JSON object per line.
func EncodeJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeJSONL parses line-delimited JSON. Blank and malformed lines are
// skipped so a partially written file still yields its good records.
func DecodeJSONL[T any](data []byte) ([]T, error) {
	var out []T
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		out = append(out, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
