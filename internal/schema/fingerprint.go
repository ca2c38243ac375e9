package schema

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/arkilian/sheetblob/pkg/types"
)

// Fingerprint returns a 128-bit murmur3 digest of everything in the catalog
// that affects the wire layout: sheet order, cardinality, key, field names and
// types, and sub-sheet order. Two catalogs with the same fingerprint decode
// the same blobs identically.
func Fingerprint(cat *types.Catalog) string {
	var b strings.Builder
	for _, sheet := range cat.Sheets {
		fmt.Fprintf(&b, "sheet %s single=%t key=%s\n", sheet.Name, sheet.Single, sheet.Key)
		for _, f := range sheet.Fields {
			fmt.Fprintf(&b, "  field %s %s\n", f.Name, f.Type)
		}
		for _, sub := range sheet.SubSheets {
			fmt.Fprintf(&b, "  sub %s %d\n", sub.Name, sub.ConfigType)
		}
	}

	h := murmur3.New128()
	h.Write([]byte(b.String()))
	h1, h2 := h.Sum128()
	return fmt.Sprintf("%016x%016x", h1, h2)
}
