package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension; anything that is
// not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
	}
}

// Decode reads one document.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	if err := decodeValue(r, f, &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", f, err)
	}
	return &doc, nil
}

// Encode writes doc. JSON output is indented.
func Encode(w io.Writer, doc *Document, f Format) error {
	return EncodeValue(w, doc, f)
}

// EncodeValue writes any value in format f; used for snapshots and reports.
func EncodeValue(w io.Writer, v any, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func decodeValue(r io.Reader, f Format, v any) error {
	switch f {
	case FormatYAML:
		return yaml.NewDecoder(r).Decode(v)
	default:
		return json.NewDecoder(r).Decode(v)
	}
}

// ReadFile decodes the document at path, choosing the format by extension.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}

// WriteFile encodes doc to path, choosing the format by extension.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, doc, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFacts decodes a JSON or YAML object of facts for checks.
func ReadFacts(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	facts := make(map[string]any)
	if err := decodeValue(f, FormatFromPath(path), &facts); err != nil {
		return nil, fmt.Errorf("decode facts %s: %w", path, err)
	}
	return facts, nil
}
