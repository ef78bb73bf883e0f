package models

import (
	"strings"

	"github.com/google/uuid"
)

// FieldDef is one named attribute slot of a category. The id stays stable
// even when the name is edited.
type FieldDef struct {
	ID  string `firestore:"id" json:"id"`
	Nom string `firestore:"nom" json:"nom"`
}

// DecodeFields turns the raw "fields" value of a category document into
// canonical FieldDefs. Historical documents stored fields either as bare
// strings or as {id, nom} maps; bare strings get a fresh id, anything
// unparseable or blank is dropped so the read path never fails.
func DecodeFields(raw interface{}) []FieldDef {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var out []FieldDef
	for _, entry := range arr {
		switch v := entry.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			out = append(out, FieldDef{ID: NewFieldID(), Nom: v})
		case map[string]interface{}:
			id, _ := v["id"].(string)
			nom, _ := v["nom"].(string)
			if strings.TrimSpace(nom) == "" {
				continue
			}
			if id == "" {
				id = NewFieldID()
			}
			out = append(out, FieldDef{ID: id, Nom: nom})
		}
	}
	return out
}

// EncodeFields is the write-side counterpart of DecodeFields. Fields with a
// blank name are not persisted.
func EncodeFields(fields []FieldDef) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Nom) == "" {
			continue
		}
		out = append(out, map[string]interface{}{"id": f.ID, "nom": f.Nom})
	}
	return out
}

// NewFieldID returns a fresh stable id for a category field.
func NewFieldID() string { return uuid.NewString() }

// IsUniteLabel reports whether a field name designates the unit column
// ("Unité"), matched case- and accent-insensitively.
func IsUniteLabel(label string) bool {
	n := strings.ToLower(strings.TrimSpace(label))
	return n == "unite" || n == "unité" || strings.Contains(n, "unité") || strings.Contains(n, "unite")
}

// LegacyUnite derives the denormalized unit value from a category's fields
// and an equipment's details: the value of the first field whose name
// matches the unit pattern, or "".
func LegacyUnite(fields []FieldDef, details map[string]string) string {
	for _, f := range fields {
		if IsUniteLabel(f.Nom) {
			return strings.TrimSpace(details[f.ID])
		}
	}
	return ""
}
