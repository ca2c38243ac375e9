package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		in   string
		want FieldType
	}{
		{"int32", Int32},
		{"int64", Int64},
		{"float32", Float32},
		{"bool", Bool},
		{"string", String},
		{"[]int32", ListOf(KindInt32)},
		{" [] string ", ListOf(KindString)},
	}

	for _, tt := range tests {
		got, err := ParseFieldType(tt.in)
		if err != nil {
			t.Errorf("ParseFieldType(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFieldType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFieldType_Unknown(t *testing.T) {
	for _, in := range []string{"", "int", "[]", "[][]int32", "double"} {
		if _, err := ParseFieldType(in); !errors.Is(err, ErrUnknownFieldType) {
			t.Errorf("ParseFieldType(%q) err = %v, want ErrUnknownFieldType", in, err)
		}
	}
}

func TestFieldType_Keyable(t *testing.T) {
	keyable := []FieldType{Int32, Int64, Bool, String}
	for _, ft := range keyable {
		if !ft.Keyable() {
			t.Errorf("%s should be keyable", ft)
		}
	}
	notKeyable := []FieldType{Float32, ListOf(KindInt32), {}}
	for _, ft := range notKeyable {
		if ft.Keyable() {
			t.Errorf("%s should not be keyable", ft)
		}
	}
}

func TestFieldType_JSON(t *testing.T) {
	var f Field
	if err := json.Unmarshal([]byte(`{"name":"tags","type":"[]string"}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Type != ListOf(KindString) {
		t.Errorf("got %v, want []string", f.Type)
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"name":"tags","type":"[]string"}` {
		t.Errorf("got %s", data)
	}
}

func TestSheet_Lookups(t *testing.T) {
	sheet := &Sheet{
		Name: "HeroConfig",
		Key:  "id",
		Fields: []Field{
			{Name: "id", Type: Int32},
			{Name: "name", Type: String},
		},
		SubSheets: []SubSheet{
			{Name: "HeroConfig", ConfigType: 0},
			{Name: "HeroConfigMoba", ConfigType: 1},
		},
	}

	if sheet.FieldIndex("name") != 1 {
		t.Error("FieldIndex(name) should be 1")
	}
	if sheet.FieldIndex("missing") != -1 {
		t.Error("FieldIndex(missing) should be -1")
	}
	if sheet.KeyIndex() != 0 || sheet.KeyField().Name != "id" {
		t.Error("key field should be id")
	}
	if !sheet.IsVariant() {
		t.Error("two sub-sheets should be a variant set")
	}
	if sheet.SubSheetIndex(1) != 1 || sheet.SubSheetIndex(7) != -1 {
		t.Error("SubSheetIndex mismatch")
	}

	sheet.Single = true
	if sheet.KeyIndex() != -1 || sheet.KeyField() != nil {
		t.Error("single sheets have no key field")
	}
}

func TestCatalog_Sheet(t *testing.T) {
	c := &Catalog{Sheets: []*Sheet{{Name: "A"}, {Name: "B"}}}
	if c.Sheet("B") != c.Sheets[1] {
		t.Error("Sheet(B) mismatch")
	}
	if c.Sheet("C") != nil {
		t.Error("Sheet(C) should be nil")
	}
}
