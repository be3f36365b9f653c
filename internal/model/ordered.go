package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// marshalOrdered writes values as a JSON object whose keys follow keys.
func marshalOrdered[V any](keys []string, values map[string]V) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(values[key])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// unmarshalOrdered decodes a JSON object and keeps the key order of the
// document. A repeated key keeps its first position and its last value.
func unmarshalOrdered[V any](data []byte) ([]string, map[string]V, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	keys := make([]string, 0, 16)
	values := make(map[string]V)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}
