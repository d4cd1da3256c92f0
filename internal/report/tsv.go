package report

import (
	"bufio"
	"io"
	"strings"
)

// TSVWriter outputs a header line followed by one tab separated line per row.
// Values are written as stored; the parser already collapses whitespace, so
// cached fields never contain tabs or newlines.
type TSVWriter struct {
	baseWriter
}

// NewTSVWriter creates a TSVWriter that outputs to the given writer.
func NewTSVWriter(output io.Writer) *TSVWriter {
	return &TSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the header and every row.
func (w *TSVWriter) Write(table *Table) (int, error) {
	bw := bufio.NewWriter(w.output)

	var total int
	n, err := bw.WriteString(strings.Join(table.columns, "\t") + "\n")
	total += n
	if err != nil {
		return total, err
	}

	fields := make([]string, len(table.columns))
	for _, row := range table.rows {
		for i, v := range row {
			fields[i] = v.String()
		}
		n, err := bw.WriteString(strings.Join(fields, "\t") + "\n")
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, bw.Flush()
}
