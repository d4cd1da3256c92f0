package report

import (
	"fmt"
	"io"
	"strings"
)

// Writer renders a table to its destination.
type Writer interface {
	// Write outputs the table.
	// Returns the number of bytes written and any error encountered.
	Write(table *Table) (int, error)
}

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatTSV      Format = "tsv"
	FormatBinary   Format = "binary"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format, in help text order.
func Formats() []Format {
	return []Format{FormatJSON, FormatTSV, FormatBinary, FormatMarkdown}
}

// ParseFormat converts a case-insensitive name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: json, tsv, binary, markdown)", ErrUnknownFormat, name)
}

// NewWriter returns the writer for format.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatTSV:
		return NewTSVWriter(output), nil
	case FormatBinary:
		return NewBinaryWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
