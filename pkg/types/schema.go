// Package types provides the core data model for sheetblob: the schema
// description of every sheet and the immutable records decoded from a blob.
package types

import (
	"fmt"
	"strings"
)

// Kind is the primitive semantic type of a field or list element.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindBool
	KindString
)

var kindNames = map[Kind]string{
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindFloat32: "float32",
	KindBool:    "bool",
	KindString:  "string",
}

// String returns the schema spelling of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// FieldType is a primitive kind, optionally wrapped in a list.
type FieldType struct {
	// Kind is the primitive type (or list element type when List is set)
	Kind Kind

	// List marks a count-prefixed sequence of Kind values
	List bool
}

// Common field types.
var (
	Int32   = FieldType{Kind: KindInt32}
	Int64   = FieldType{Kind: KindInt64}
	Float32 = FieldType{Kind: KindFloat32}
	Bool    = FieldType{Kind: KindBool}
	String  = FieldType{Kind: KindString}
)

// ListOf returns the list type whose elements are of kind k.
func ListOf(k Kind) FieldType {
	return FieldType{Kind: k, List: true}
}

// ParseFieldType parses "int32", "int64", "float32", "bool", "string" and the
// list form "[]T".
func ParseFieldType(s string) (FieldType, error) {
	s = strings.TrimSpace(s)
	list := false
	if strings.HasPrefix(s, "[]") {
		list = true
		s = strings.TrimSpace(s[2:])
	}
	for k, name := range kindNames {
		if name == s {
			return FieldType{Kind: k, List: list}, nil
		}
	}
	return FieldType{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
}

// String returns the schema spelling of the type.
func (t FieldType) String() string {
	if t.List {
		return "[]" + t.Kind.String()
	}
	return t.Kind.String()
}

// Valid reports whether the type names a known kind.
func (t FieldType) Valid() bool {
	_, ok := kindNames[t.Kind]
	return ok
}

// Keyable reports whether values of this type may be used as a key field.
// Lists are not comparable and float keys do not round-trip through equality.
func (t FieldType) Keyable() bool {
	return t.Valid() && !t.List && t.Kind != KindFloat32
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFieldType, t.Kind)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so catalogs can be read
// from YAML or JSON.
func (t *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Field describes one column of a sheet.
type Field struct {
	// Name is the field name, unique within its sheet
	Name string `json:"name" yaml:"name"`

	// Type is the semantic type used to pick the decoder operation
	Type FieldType `json:"type" yaml:"type"`
}

// SubSheet is one physical copy of a sheet, tagged by the mode it serves.
type SubSheet struct {
	// Name identifies the sub-sheet, unique across the catalog
	Name string `json:"name" yaml:"name"`

	// ConfigType is 0 for the default copy; other values map to host modes
	ConfigType int32 `json:"config_type" yaml:"config_type"`
}

// Sheet is the schema-level definition of a table.
type Sheet struct {
	// Name is the sheet name, unique within the catalog
	Name string `json:"name" yaml:"name"`

	// Key names the key field; required for list sheets, unused for single sheets
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Single marks a sheet holding at most one logical record
	Single bool `json:"single,omitempty" yaml:"single,omitempty"`

	// Fields lists the fields in wire order
	Fields []Field `json:"fields" yaml:"fields"`

	// SubSheets lists the physical copies in wire order
	SubSheets []SubSheet `json:"sub_sheets,omitempty" yaml:"sub_sheets,omitempty"`
}

// FieldIndex returns the position of the named field, or -1.
func (s *Sheet) FieldIndex(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// KeyIndex returns the position of the key field, or -1 for single sheets and
// sheets without a valid key.
func (s *Sheet) KeyIndex() int {
	if s.Single || s.Key == "" {
		return -1
	}
	return s.FieldIndex(s.Key)
}

// KeyField returns the key field, or nil.
func (s *Sheet) KeyField() *Field {
	idx := s.KeyIndex()
	if idx < 0 {
		return nil
	}
	return &s.Fields[idx]
}

// IsVariant reports whether the sheet has more than one physical copy.
func (s *Sheet) IsVariant() bool {
	return len(s.SubSheets) > 1
}

// SubSheetIndex returns the position of the sub-sheet tagged configType, or -1.
func (s *Sheet) SubSheetIndex(configType int32) int {
	for i := range s.SubSheets {
		if s.SubSheets[i].ConfigType == configType {
			return i
		}
	}
	return -1
}

// Catalog is the ordered list of every sheet in a blob.
type Catalog struct {
	// Sheets in wire order
	Sheets []*Sheet `json:"sheets" yaml:"sheets"`
}

// Sheet returns the named sheet, or nil.
func (c *Catalog) Sheet(name string) *Sheet {
	for _, s := range c.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}
