package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/sheetblob/internal/codec/codectest"
	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/pkg/types"
)

func TestDecoder_Primitives(t *testing.T) {
	buf := codectest.NewEncoder().
		WriteInt32(-42).
		WriteInt64(math.MaxInt64).
		WriteFloat32(3.25).
		WriteBool(true).
		WriteString("héros").
		WriteString("").
		Bytes()

	d := NewDecoder(buf)

	i32, err := d.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-42), i32)
	assert.Equal(t, 4, d.Offset())

	i64, err := d.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), i64)

	f, err := d.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.25), f)

	b, err := d.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "héros", s)

	empty, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	assert.True(t, d.AtEnd())
	assert.Equal(t, 0, d.Remaining())
}

func TestDecoder_LittleEndian(t *testing.T) {
	d := NewDecoder([]byte{0x01, 0x02, 0x00, 0x00})
	v, err := d.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(0x0201), v)
}

func TestDecoder_NonZeroBoolIsTrue(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x07})
	first, err := d.ReadBool()
	require.NoError(t, err)
	second, err := d.ReadBool()
	require.NoError(t, err)
	assert.False(t, first)
	assert.True(t, second)
}

func TestDecoder_TruncatedDoesNotAdvance(t *testing.T) {
	d := NewDecoder([]byte{0x01, 0x02, 0x03})

	_, err := d.ReadInt32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTruncated))
	assert.Equal(t, 0, d.Offset(), "failed read must not move the cursor")

	details := apperrors.GetDetails(err)
	assert.Equal(t, 4, details["need"])
	assert.Equal(t, 3, details["have"])
}

func TestDecoder_TruncatedEachPrimitive(t *testing.T) {
	reads := map[string]func(*Decoder) error{
		"int32":   func(d *Decoder) error { _, err := d.ReadInt32(); return err },
		"int64":   func(d *Decoder) error { _, err := d.ReadInt64(); return err },
		"float32": func(d *Decoder) error { _, err := d.ReadFloat32(); return err },
		"bool":    func(d *Decoder) error { _, err := d.ReadBool(); return err },
		"string":  func(d *Decoder) error { _, err := d.ReadString(); return err },
	}
	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			err := read(NewDecoder(nil))
			assert.True(t, errors.Is(err, apperrors.ErrTruncated), "got %v", err)
		})
	}
}

func TestDecoder_StringBodyTruncated(t *testing.T) {
	buf := codectest.NewEncoder().WriteInt32(10).WriteRaw('a', 'b').Bytes()
	_, err := NewDecoder(buf).ReadString()
	assert.True(t, errors.Is(err, apperrors.ErrTruncated))
}

func TestDecoder_NegativeLength(t *testing.T) {
	buf := codectest.NewEncoder().WriteInt32(-1).Bytes()
	_, err := NewDecoder(buf).ReadString()
	assert.True(t, errors.Is(err, apperrors.ErrInvalidLength))

	_, err = NewDecoder(buf).ReadValue(types.ListOf(types.KindInt32))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidLength))
}

func TestDecoder_Lists(t *testing.T) {
	e := codectest.NewEncoder()
	require.NoError(t, e.WriteValue(types.ListOf(types.KindInt32), []int32{1, -2, 3}))
	require.NoError(t, e.WriteValue(types.ListOf(types.KindInt64), []int64{1 << 50}))
	require.NoError(t, e.WriteValue(types.ListOf(types.KindFloat32), []float32{0.5}))
	require.NoError(t, e.WriteValue(types.ListOf(types.KindBool), []bool{true, false}))
	require.NoError(t, e.WriteValue(types.ListOf(types.KindString), []string{"a", "", "c"}))
	require.NoError(t, e.WriteValue(types.ListOf(types.KindString), []string{}))

	d := NewDecoder(e.Bytes())
	expected := []struct {
		ft   types.FieldType
		want any
	}{
		{types.ListOf(types.KindInt32), []int32{1, -2, 3}},
		{types.ListOf(types.KindInt64), []int64{1 << 50}},
		{types.ListOf(types.KindFloat32), []float32{0.5}},
		{types.ListOf(types.KindBool), []bool{true, false}},
		{types.ListOf(types.KindString), []string{"a", "", "c"}},
		{types.ListOf(types.KindString), []string{}},
	}
	for _, tt := range expected {
		got, err := d.ReadValue(tt.ft)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.True(t, d.AtEnd())
}

func TestDecoder_HugeListCountFailsEarly(t *testing.T) {
	buf := codectest.NewEncoder().WriteInt32(math.MaxInt32).WriteInt32(1).Bytes()
	_, err := NewDecoder(buf).ReadValue(types.ListOf(types.KindInt64))
	assert.True(t, errors.Is(err, apperrors.ErrTruncated))
}

func TestDecoder_ReadRecord(t *testing.T) {
	sheet := &types.Sheet{
		Name: "ItemConfig",
		Key:  "id",
		Fields: []types.Field{
			{Name: "id", Type: types.Int32},
			{Name: "name", Type: types.String},
			{Name: "weights", Type: types.ListOf(types.KindFloat32)},
		},
	}
	e := codectest.NewEncoder()
	require.NoError(t, e.WriteRecord(sheet, int32(3), "potion", []float32{1, 2}))

	rec, err := NewDecoder(e.Bytes()).ReadRecord(sheet)
	require.NoError(t, err)
	assert.Equal(t, int32(3), rec.Key())
	assert.Equal(t, "potion", rec.String("name"))
	assert.Equal(t, []float32{1, 2}, rec.Float32s("weights"))
}

func TestDecoder_ReadRecordTruncatedNamesField(t *testing.T) {
	sheet := &types.Sheet{
		Name:   "ItemConfig",
		Fields: []types.Field{{Name: "id", Type: types.Int32}, {Name: "name", Type: types.String}},
	}
	buf := codectest.NewEncoder().WriteInt32(3).Bytes()

	_, err := NewDecoder(buf).ReadRecord(sheet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTruncated))
	assert.Contains(t, err.Error(), "field name")
}
