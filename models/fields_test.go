package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFieldsMixedShapes(t *testing.T) {
	raw := []interface{}{
		"Voltage",
		map[string]interface{}{"id": "f-unite", "nom": "Unité"},
		map[string]interface{}{"id": "", "nom": "Marque"},
		map[string]interface{}{"id": "f-empty", "nom": "  "},
		"",
		42,
	}

	fields := DecodeFields(raw)
	require.Len(t, fields, 3)

	assert.Equal(t, "Voltage", fields[0].Nom)
	assert.NotEmpty(t, fields[0].ID, "bare strings must get a generated id")

	assert.Equal(t, FieldDef{ID: "f-unite", Nom: "Unité"}, fields[1])

	assert.Equal(t, "Marque", fields[2].Nom)
	assert.NotEmpty(t, fields[2].ID)
}

func TestDecodeFieldsNonArray(t *testing.T) {
	assert.Nil(t, DecodeFields(nil))
	assert.Nil(t, DecodeFields("not an array"))
	assert.Nil(t, DecodeFields(map[string]interface{}{"id": "x"}))
}

func TestEncodeFieldsDropsBlankNames(t *testing.T) {
	encoded := EncodeFields([]FieldDef{
		{ID: "a", Nom: "Unité"},
		{ID: "b", Nom: "   "},
	})
	require.Len(t, encoded, 1)
	assert.Equal(t, map[string]interface{}{"id": "a", "nom": "Unité"}, encoded[0])
}

func TestIsUniteLabel(t *testing.T) {
	assert.True(t, IsUniteLabel("Unité"))
	assert.True(t, IsUniteLabel("unite"))
	assert.True(t, IsUniteLabel("  UNITE  "))
	assert.True(t, IsUniteLabel("Unité de mesure"))
	assert.False(t, IsUniteLabel("Voltage"))
	assert.False(t, IsUniteLabel(""))
}

func TestLegacyUnite(t *testing.T) {
	fields := []FieldDef{
		{ID: "f1", Nom: "Voltage"},
		{ID: "f2", Nom: "Unité"},
	}
	details := map[string]string{"f1": "18V", "f2": " pied "}

	assert.Equal(t, "pied", LegacyUnite(fields, details))
	assert.Equal(t, "", LegacyUnite(fields[:1], details))
	assert.Equal(t, "", LegacyUnite(fields, nil))
}
