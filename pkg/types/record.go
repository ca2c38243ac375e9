package types

import "fmt"

// Record is one decoded row of a sheet. Values are held in field-declaration
// order and never change after construction.
//
// Value types by field type: int32, int64, float32, bool, string, and
// []int32, []int64, []float32, []bool, []string for lists.
type Record struct {
	sheet  *Sheet
	values []any
}

// NewRecord builds a record for sheet from values in field order.
func NewRecord(sheet *Sheet, values []any) (*Record, error) {
	if len(values) != len(sheet.Fields) {
		return nil, fmt.Errorf("%w: sheet %s has %d fields, got %d values",
			ErrFieldCount, sheet.Name, len(sheet.Fields), len(values))
	}
	for i, f := range sheet.Fields {
		if err := CheckValue(f.Type, values[i]); err != nil {
			return nil, fmt.Errorf("sheet %s field %s: %w", sheet.Name, f.Name, err)
		}
	}
	return &Record{sheet: sheet, values: values}, nil
}

// CheckValue reports whether v has the Go type used for ft.
func CheckValue(ft FieldType, v any) error {
	ok := false
	switch ft {
	case Int32:
		_, ok = v.(int32)
	case Int64:
		_, ok = v.(int64)
	case Float32:
		_, ok = v.(float32)
	case Bool:
		_, ok = v.(bool)
	case String:
		_, ok = v.(string)
	case ListOf(KindInt32):
		_, ok = v.([]int32)
	case ListOf(KindInt64):
		_, ok = v.([]int64)
	case ListOf(KindFloat32):
		_, ok = v.([]float32)
	case ListOf(KindBool):
		_, ok = v.([]bool)
	case ListOf(KindString):
		_, ok = v.([]string)
	}
	if !ok {
		return fmt.Errorf("%w: want %s, got %T", ErrValueType, ft, v)
	}
	return nil
}

// Sheet returns the sheet this record belongs to.
func (r *Record) Sheet() *Sheet {
	return r.sheet
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.values)
}

// Value returns the i-th field value.
func (r *Record) Value(i int) any {
	return r.values[i]
}

// Get returns the named field value.
func (r *Record) Get(name string) (any, bool) {
	idx := r.sheet.FieldIndex(name)
	if idx < 0 {
		return nil, false
	}
	return r.values[idx], true
}

// Key returns the key field value, or nil for single sheets.
func (r *Record) Key() any {
	idx := r.sheet.KeyIndex()
	if idx < 0 {
		return nil
	}
	return r.values[idx]
}

// Map returns the record as a field-name keyed map. List values are shared
// with the record and must not be modified.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, f := range r.sheet.Fields {
		m[f.Name] = r.values[i]
	}
	return m
}

// Int32 returns the named int32 field, or 0.
func (r *Record) Int32(name string) int32 {
	v, _ := r.get(name).(int32)
	return v
}

// Int64 returns the named int64 field, or 0.
func (r *Record) Int64(name string) int64 {
	v, _ := r.get(name).(int64)
	return v
}

// Float32 returns the named float32 field, or 0.
func (r *Record) Float32(name string) float32 {
	v, _ := r.get(name).(float32)
	return v
}

// Bool returns the named bool field, or false.
func (r *Record) Bool(name string) bool {
	v, _ := r.get(name).(bool)
	return v
}

// String returns the named string field, or "".
func (r *Record) String(name string) string {
	v, _ := r.get(name).(string)
	return v
}

// Int32s returns the named []int32 field, or nil.
func (r *Record) Int32s(name string) []int32 {
	v, _ := r.get(name).([]int32)
	return v
}

// Int64s returns the named []int64 field, or nil.
func (r *Record) Int64s(name string) []int64 {
	v, _ := r.get(name).([]int64)
	return v
}

// Float32s returns the named []float32 field, or nil.
func (r *Record) Float32s(name string) []float32 {
	v, _ := r.get(name).([]float32)
	return v
}

// Bools returns the named []bool field, or nil.
func (r *Record) Bools(name string) []bool {
	v, _ := r.get(name).([]bool)
	return v
}

// Strings returns the named []string field, or nil.
func (r *Record) Strings(name string) []string {
	v, _ := r.get(name).([]string)
	return v
}

func (r *Record) get(name string) any {
	v, _ := r.Get(name)
	return v
}
