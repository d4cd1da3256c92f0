package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is one typed cell of an output row.
// It is either an integer or a string, decided when the row is built, so the
// report writers never have to inspect types at print time.
type Value struct {
	str   string
	num   int64
	isInt bool
}

// IntValue returns an integer cell.
func IntValue(n int64) Value {
	return Value{num: n, isInt: true}
}

// StringValue returns a string cell.
func StringValue(s string) Value {
	return Value{str: s}
}

// IsInt reports whether the cell holds an integer.
func (v Value) IsInt() bool {
	return v.isInt
}

// Int returns the integer content; zero for string cells.
func (v Value) Int() int64 {
	return v.num
}

// String returns the cell stringified the way TSV and binary output print it.
func (v Value) String() string {
	if v.isInt {
		return strconv.FormatInt(v.num, 10)
	}
	return v.str
}

// MarshalJSON encodes integers as JSON numbers and strings as JSON strings.
// '<', '>' and '&' are kept literal so magnet URIs stay readable.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isInt {
		return []byte(strconv.FormatInt(v.num, 10)), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.str); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
