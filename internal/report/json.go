package report

import (
	"bytes"
	"encoding/json"
	"io"
)

// JSONWriter outputs one compact JSON object per row.
// Keys appear in column order, which a Go map cannot guarantee, so each
// object is assembled field by field.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs every row as a JSON line. An empty table writes nothing.
func (w *JSONWriter) Write(table *Table) (int, error) {
	keys := make([][]byte, 0, len(table.columns))
	for _, c := range table.columns {
		key, err := encodeJSON(c)
		if err != nil {
			return 0, err
		}
		keys = append(keys, key)
	}

	var total int
	var line bytes.Buffer
	for _, row := range table.rows {
		line.Reset()
		line.WriteByte('{')
		for i, v := range row {
			if i > 0 {
				line.WriteByte(',')
			}
			data, err := encodeJSON(v)
			if err != nil {
				return total, err
			}
			line.Write(keys[i])
			line.WriteByte(':')
			line.Write(data)
		}
		line.WriteString("}\n")

		n, err := w.output.Write(line.Bytes())
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// encodeJSON marshals v without HTML escaping.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
