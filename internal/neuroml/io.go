package neuroml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode neuroml: %w", err)
	}
	return &doc, nil
}

func Encode(doc *Document) ([]byte, error) {
	out := *doc
	out.Xmlns = Namespace
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode neuroml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func WriteFile(path string, doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadCell loads the first cell of a document.
func ReadCell(path string) (*Cell, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(doc.Cells) == 0 {
		return nil, fmt.Errorf("no cell in %s", path)
	}
	return &doc.Cells[0], nil
}

// IncludedFiles returns file, relative to rootDir, followed by every file it
// includes, transitively, each once and in discovery order.
func IncludedFiles(file, rootDir string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	var walk func(rel string) error
	walk = func(rel string) error {
		rel = filepath.Clean(rel)
		if seen[rel] {
			return nil
		}
		seen[rel] = true
		out = append(out, rel)
		doc, err := ReadFile(filepath.Join(rootDir, rel))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		for _, inc := range doc.Includes {
			if err := walk(filepath.Join(filepath.Dir(rel), inc.Href)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(file); err != nil {
		return nil, err
	}
	return out, nil
}
