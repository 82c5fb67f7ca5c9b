package meta

import (
	"context"

	"github.com/zulandar/studio/internal/fieldtype"
	"github.com/zulandar/studio/internal/models"
)

// GetDocTypeFields returns the value-bearing fields of doctype in their
// original order. Lookup errors are returned unchanged.
func GetDocTypeFields(ctx context.Context, g Getter, doctype string) ([]models.DocField, error) {
	m, err := g.GetMeta(ctx, doctype)
	if err != nil {
		return nil, err
	}
	return ValueFields(m.Fields), nil
}

// ValueFields filters out fields whose fieldtype is a no-value or display
// fieldtype. The result is a new slice and never nil.
func ValueFields(fields []models.DocField) []models.DocField {
	out := make([]models.DocField, 0, len(fields))
	for _, f := range fields {
		if fieldtype.IsValueField(fieldtype.Type(f.Fieldtype)) {
			out = append(out, f)
		}
	}
	return out
}
