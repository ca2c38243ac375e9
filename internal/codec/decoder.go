// Package codec provides the sequential binary cursor used to decode sheet
// blobs.
//
// Wire format, all fixed-width values little-endian:
//   - int32 / int64: 4 / 8 bytes
//   - float32: 4 bytes IEEE-754
//   - bool: 1 byte, non-zero is true
//   - string: int32 byte length + raw UTF-8 bytes
//   - list: int32 element count + elements
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/pkg/types"
)

// Decoder reads typed values from an immutable byte slice. It is single-pass
// and must not be shared between goroutines.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.pos
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// AtEnd reports whether every byte has been consumed.
func (d *Decoder) AtEnd() bool {
	return d.pos >= len(d.buf)
}

// take returns the next n bytes and advances the cursor, or fails without
// moving it.
func (d *Decoder) take(n int, what string) ([]byte, error) {
	if n > d.Remaining() {
		return nil, apperrors.NewDecodeError(apperrors.CodeTruncated,
			fmt.Sprintf("%s: need %d bytes, have %d", what, n, d.Remaining())).
			WithDetails(map[string]interface{}{"offset": d.pos, "need": n, "have": d.Remaining()})
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadInt32 reads a 4-byte signed integer.
func (d *Decoder) ReadInt32() (int32, error) {
	b, err := d.take(4, "int32")
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadInt64 reads an 8-byte signed integer.
func (d *Decoder) ReadInt64() (int64, error) {
	b, err := d.take(8, "int64")
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// ReadFloat32 reads a 4-byte IEEE-754 float.
func (d *Decoder) ReadFloat32() (float32, error) {
	b, err := d.take(4, "float32")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadBool reads a one-byte boolean.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.take(1, "bool")
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadString reads a length-prefixed string. The result does not alias the
// underlying buffer.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadCount("string length")
	if err != nil {
		return "", err
	}
	b, err := d.take(n, "string body")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCount reads an int32 used as a length or count and rejects negative
// values.
func (d *Decoder) ReadCount(what string) (int, error) {
	at := d.pos
	n, err := d.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, apperrors.NewDecodeError(apperrors.CodeInvalidLength,
			fmt.Sprintf("%s: negative value %d", what, n)).
			WithDetails(map[string]interface{}{"offset": at, "value": n})
	}
	return int(n), nil
}

// minWidth is the smallest encoding of one element of kind k.
func minWidth(k types.Kind) int {
	switch k {
	case types.KindInt64:
		return 8
	case types.KindBool:
		return 1
	default:
		return 4
	}
}

// readListCount reads a list count and fails early when the remaining bytes
// cannot hold that many elements.
func (d *Decoder) readListCount(k types.Kind) (int, error) {
	n, err := d.ReadCount("list count")
	if err != nil {
		return 0, err
	}
	need := int64(n) * int64(minWidth(k))
	if need > int64(d.Remaining()) {
		return 0, apperrors.NewDecodeError(apperrors.CodeTruncated,
			fmt.Sprintf("list of %d %s: need at least %d bytes, have %d", n, k, need, d.Remaining())).
			WithDetails(map[string]interface{}{"offset": d.pos, "need": need, "have": d.Remaining()})
	}
	return n, nil
}

// ReadValue reads one value of type ft using the matching primitive
// operation. See types.Record for the Go type produced per field type.
func (d *Decoder) ReadValue(ft types.FieldType) (any, error) {
	if ft.List {
		return d.readList(ft.Kind)
	}
	switch ft.Kind {
	case types.KindInt32:
		return d.ReadInt32()
	case types.KindInt64:
		return d.ReadInt64()
	case types.KindFloat32:
		return d.ReadFloat32()
	case types.KindBool:
		return d.ReadBool()
	case types.KindString:
		return d.ReadString()
	default:
		return nil, apperrors.NewInternalError(fmt.Sprintf("no decoder for %s", ft), types.ErrUnknownFieldType)
	}
}

func (d *Decoder) readList(k types.Kind) (any, error) {
	n, err := d.readListCount(k)
	if err != nil {
		return nil, err
	}
	switch k {
	case types.KindInt32:
		return readN(n, d.ReadInt32)
	case types.KindInt64:
		return readN(n, d.ReadInt64)
	case types.KindFloat32:
		return readN(n, d.ReadFloat32)
	case types.KindBool:
		return readN(n, d.ReadBool)
	case types.KindString:
		return readN(n, d.ReadString)
	default:
		return nil, apperrors.NewInternalError(fmt.Sprintf("no decoder for []%s", k), types.ErrUnknownFieldType)
	}
}

func readN[T any](n int, read func() (T, error)) ([]T, error) {
	out := make([]T, n)
	for i := range out {
		v, err := read()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadRecord decodes one record of sheet, fields in declaration order.
func (d *Decoder) ReadRecord(sheet *types.Sheet) (*types.Record, error) {
	values := make([]any, len(sheet.Fields))
	for i, f := range sheet.Fields {
		v, err := d.ReadValue(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		values[i] = v
	}
	return types.NewRecord(sheet, values)
}
