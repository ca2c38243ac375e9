package schema

import (
	"errors"
	"fmt"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/pkg/types"
)

// Validate checks the structural rules every catalog must satisfy before a
// blob can be decoded against it. All violations are reported together.
func Validate(cat *types.Catalog) error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	sheetNames := make(map[string]bool)
	subNames := make(map[string]string)

	for i, sheet := range cat.Sheets {
		if sheet == nil {
			fail("sheet #%d is empty", i)
			continue
		}
		if sheet.Name == "" {
			fail("sheet #%d has no name", i)
		} else if sheetNames[sheet.Name] {
			fail("duplicate sheet name %q", sheet.Name)
		}
		sheetNames[sheet.Name] = true

		fieldNames := make(map[string]bool)
		for j, f := range sheet.Fields {
			switch {
			case f.Name == "":
				fail("sheet %s: field #%d has no name", sheet.Name, j)
			case fieldNames[f.Name]:
				fail("sheet %s: duplicate field %q", sheet.Name, f.Name)
			}
			fieldNames[f.Name] = true
			if !f.Type.Valid() {
				fail("sheet %s: field %s has no valid type", sheet.Name, f.Name)
			}
		}

		if !sheet.Single {
			key := sheet.KeyField()
			switch {
			case sheet.Key == "":
				fail("sheet %s: list sheets require a key field", sheet.Name)
			case key == nil:
				fail("sheet %s: key %q is not a field", sheet.Name, sheet.Key)
			case !key.Type.Keyable():
				fail("sheet %s: key %s has type %s, want a scalar non-float type", sheet.Name, key.Name, key.Type)
			}
		}

		if len(sheet.SubSheets) == 0 {
			fail("sheet %s: no sub-sheets", sheet.Name)
		}
		configTypes := make(map[int32]bool)
		for _, sub := range sheet.SubSheets {
			if sub.Name == "" {
				fail("sheet %s: sub-sheet with no name", sheet.Name)
			} else if owner, ok := subNames[sub.Name]; ok {
				fail("sheet %s: sub-sheet %q already declared by sheet %s", sheet.Name, sub.Name, owner)
			} else {
				subNames[sub.Name] = sheet.Name
			}
			if sub.ConfigType < 0 {
				fail("sheet %s: sub-sheet %s has negative config_type %d", sheet.Name, sub.Name, sub.ConfigType)
			}
			if configTypes[sub.ConfigType] {
				fail("sheet %s: config_type %d declared twice", sheet.Name, sub.ConfigType)
			}
			configTypes[sub.ConfigType] = true
		}
		if sheet.IsVariant() && !configTypes[0] {
			fail("sheet %s: variant sheets need a config_type 0 sub-sheet", sheet.Name)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrCategorySchema, apperrors.CodeInvalidSchema,
		fmt.Sprintf("catalog has %d problem(s)", len(problems)), errors.Join(problems...))
}
