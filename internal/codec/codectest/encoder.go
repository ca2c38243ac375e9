// Package codectest builds sheet blobs for tests. It writes exactly the wire
// format read by codec.Decoder.
package codectest

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arkilian/sheetblob/pkg/types"
)

// Encoder accumulates an encoded blob.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded blob.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written.
func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) WriteInt32(v int32) *Encoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v))
	return e
}

func (e *Encoder) WriteInt64(v int64) *Encoder {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
	return e
}

func (e *Encoder) WriteFloat32(v float32) *Encoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
	return e
}

func (e *Encoder) WriteBool(v bool) *Encoder {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
	return e
}

func (e *Encoder) WriteString(v string) *Encoder {
	e.WriteInt32(int32(len(v)))
	e.buf = append(e.buf, v...)
	return e
}

// WriteRaw appends bytes verbatim, for crafting malformed blobs.
func (e *Encoder) WriteRaw(b ...byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// WriteValue encodes v, which must have the Go type used for ft.
func (e *Encoder) WriteValue(ft types.FieldType, v any) error {
	if err := types.CheckValue(ft, v); err != nil {
		return err
	}
	switch x := v.(type) {
	case int32:
		e.WriteInt32(x)
	case int64:
		e.WriteInt64(x)
	case float32:
		e.WriteFloat32(x)
	case bool:
		e.WriteBool(x)
	case string:
		e.WriteString(x)
	case []int32:
		writeList(e, x, e.WriteInt32)
	case []int64:
		writeList(e, x, e.WriteInt64)
	case []float32:
		writeList(e, x, e.WriteFloat32)
	case []bool:
		writeList(e, x, e.WriteBool)
	case []string:
		writeList(e, x, e.WriteString)
	}
	return nil
}

func writeList[T any](e *Encoder, vs []T, write func(T) *Encoder) {
	e.WriteInt32(int32(len(vs)))
	for _, v := range vs {
		write(v)
	}
}

// WriteRecord encodes one row of sheet, values in field order.
func (e *Encoder) WriteRecord(sheet *types.Sheet, values ...any) error {
	if len(values) != len(sheet.Fields) {
		return fmt.Errorf("%w: sheet %s has %d fields, got %d values",
			types.ErrFieldCount, sheet.Name, len(sheet.Fields), len(values))
	}
	for i, f := range sheet.Fields {
		if err := e.WriteValue(f.Type, values[i]); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}

// WriteTable encodes a sub-sheet: the record count followed by every row.
func (e *Encoder) WriteTable(sheet *types.Sheet, rows ...[]any) error {
	e.WriteInt32(int32(len(rows)))
	for _, row := range rows {
		if err := e.WriteRecord(sheet, row...); err != nil {
			return err
		}
	}
	return nil
}

// Blob builds a complete blob: version string, then for every sheet and
// sub-sheet in catalog order the rows found under the sub-sheet's name.
// Sub-sheets without an entry are written empty.
func Blob(version string, catalog *types.Catalog, rows map[string][][]any) ([]byte, error) {
	e := NewEncoder().WriteString(version)
	for _, sheet := range catalog.Sheets {
		for _, sub := range sheet.SubSheets {
			if err := e.WriteTable(sheet, rows[sub.Name]...); err != nil {
				return nil, fmt.Errorf("sub-sheet %s: %w", sub.Name, err)
			}
		}
	}
	return e.Bytes(), nil
}

// MustBlob is Blob for fixtures known to be well-formed.
func MustBlob(version string, catalog *types.Catalog, rows map[string][][]any) []byte {
	b, err := Blob(version, catalog, rows)
	if err != nil {
		panic(err)
	}
	return b
}
