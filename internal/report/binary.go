package report

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// rowTerminator ends every binary frame.
const rowTerminator = 0x0a

// ErrMalformedFrame is returned by ReadBinaryRow for a frame that does not
// end with the row terminator.
var ErrMalformedFrame = errors.New("malformed binary frame")

// BinaryWriter outputs length prefixed frames: the header first, then one
// frame per row. Each field is a 4-byte big-endian byte length followed by
// its UTF-8 bytes, and each frame ends with 0x0a.
type BinaryWriter struct {
	baseWriter
}

// NewBinaryWriter creates a BinaryWriter that outputs to the given writer.
func NewBinaryWriter(output io.Writer) *BinaryWriter {
	return &BinaryWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the header frame and one frame per row.
func (w *BinaryWriter) Write(table *Table) (int, error) {
	bw := bufio.NewWriter(w.output)

	var total int
	n, err := writeFrame(bw, table.columns)
	total += n
	if err != nil {
		return total, err
	}

	fields := make([]string, len(table.columns))
	for _, row := range table.rows {
		for i, v := range row {
			fields[i] = v.String()
		}
		n, err := writeFrame(bw, fields)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, bw.Flush()
}

func writeFrame(w io.Writer, fields []string) (int, error) {
	frame := make([]byte, 0, 64)
	for _, f := range fields {
		if uint64(len(f)) > math.MaxUint32 {
			return 0, fmt.Errorf("field of %d bytes does not fit a frame", len(f))
		}
		frame = binary.BigEndian.AppendUint32(frame, uint32(len(f))) //nolint:gosec // bounded above
		frame = append(frame, f...)
	}
	frame = append(frame, rowTerminator)
	return w.Write(frame)
}

// ReadBinaryRow reads one frame of fieldCount fields written by BinaryWriter.
// It returns io.EOF when r is exhausted before the frame starts.
func ReadBinaryRow(r io.Reader, fieldCount int) ([]string, error) {
	fields := make([]string, 0, fieldCount)
	var size [4]byte
	for i := range fieldCount {
		if _, err := io.ReadFull(r, size[:]); err != nil {
			if i == 0 && errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		data := make([]byte, binary.BigEndian.Uint32(size[:]))
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		fields = append(fields, string(data))
	}

	var term [1]byte
	if _, err := io.ReadFull(r, term[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if term[0] != rowTerminator {
		return nil, fmt.Errorf("%w: terminator 0x%02x", ErrMalformedFrame, term[0])
	}
	return fields, nil
}
