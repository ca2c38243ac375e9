// Package schema loads and validates the sheet catalog that describes a blob's
// layout.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/pkg/types"
)

// Format selects the catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", apperrors.NewSchemaError(fmt.Sprintf("unsupported catalog file format: %s", ext))
	}
}

// LoadFile reads, normalizes and validates a catalog file.
func LoadFile(path string) (*types.Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes, normalizes and validates a catalog.
func Parse(data []byte, format Format) (*types.Catalog, error) {
	cat := &types.Catalog{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cat); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCategorySchema, apperrors.CodeInvalidSchema,
				"failed to parse YAML catalog", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, cat); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCategorySchema, apperrors.CodeInvalidSchema,
				"failed to parse JSON catalog", err)
		}
	default:
		return nil, apperrors.NewSchemaError(fmt.Sprintf("unsupported catalog format: %s", format))
	}

	Normalize(cat)
	if err := Validate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// Normalize gives every sheet without declared sub-sheets a single default
// sub-sheet named after the sheet.
func Normalize(cat *types.Catalog) {
	for _, sheet := range cat.Sheets {
		if sheet == nil || len(sheet.SubSheets) > 0 {
			continue
		}
		sheet.SubSheets = []types.SubSheet{{Name: sheet.Name, ConfigType: 0}}
	}
}
