package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priceforge/priceforge_api/internal/models"
)

func activeAll(sections []models.Section) map[string]struct{} {
	return ComputeActiveFields(sections, InputSet{})
}

func TestResolve_MetaInjectedFirst(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "width_cm", Type: models.FieldNumber, UseInFormula: true},
	}}}
	meta := models.MetaMap{"unit_m2_price": 1500, "width_cm": 1}

	vars, err := Resolve(sections, InputSet{"width_cm": 100.0}, activeAll(sections), meta)
	assert.Nil(t, err)
	assert.Equal(t, 1500.0, vars["unit_m2_price"])
	// Field value wins over a colliding meta key.
	assert.Equal(t, 100.0, vars["width_cm"])
}

func TestResolve_NumberCoercion(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "n", Type: models.FieldNumber, UseInFormula: true},
	}}}

	vars, err := Resolve(sections, InputSet{"n": "12.5"}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 12.5, vars["n"])

	_, err = Resolve(sections, InputSet{"n": "wide"}, activeAll(sections), nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindInvalidInput, err.Kind)
		assert.Equal(t, "n", err.Field)
	}
}

func TestResolve_NumberBounds(t *testing.T) {
	minV, maxV := 10.0, 200.0
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "n", Type: models.FieldNumber, UseInFormula: true, Min: &minV, Max: &maxV},
	}}}

	_, err := Resolve(sections, InputSet{"n": 5.0}, activeAll(sections), nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindInvalidInput, err.Kind)
	}
	_, err = Resolve(sections, InputSet{"n": 500.0}, activeAll(sections), nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindInvalidInput, err.Kind)
	}
	vars, err := Resolve(sections, InputSet{"n": 50.0}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 50.0, vars["n"])
}

func TestResolve_OptionalAbsentOmitted(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "n", Type: models.FieldNumber, UseInFormula: true},
	}}}

	vars, err := Resolve(sections, InputSet{}, activeAll(sections), nil)
	assert.Nil(t, err)
	_, present := vars["n"]
	assert.False(t, present, "absent optional input must be omitted, not zeroed")
}

func TestResolve_SelectOptionPrice(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "material", Type: models.FieldSelect, UseInFormula: true, Options: []models.FieldOption{
			{Value: "vinyl", Price: 0},
			{Value: "canvas", Price: 250},
		}},
	}}}

	vars, err := Resolve(sections, InputSet{"material": "canvas"}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 250.0, vars["material"])

	vars, err = Resolve(sections, InputSet{"material": "vinyl"}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 0.0, vars["material"])

	_, err = Resolve(sections, InputSet{"material": "silk"}, activeAll(sections), nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindInvalidInput, err.Kind)
		assert.Equal(t, "material", err.Field)
	}
}

func TestResolve_Checkbox(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "laminated", Type: models.FieldCheckbox, UseInFormula: true},
	}}}

	vars, err := Resolve(sections, InputSet{"laminated": true}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, vars["laminated"])

	vars, err = Resolve(sections, InputSet{"laminated": false}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 0.0, vars["laminated"])
}

func TestResolve_ExtrasSumsSelectedOptions(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "extras", Type: models.FieldExtras, UseInFormula: true, Options: []models.FieldOption{
			{Value: "grommets", Price: 100},
			{Value: "pole_pocket", Price: 150},
			{Value: "hem", Price: 50},
		}},
	}}}

	vars, err := Resolve(sections, InputSet{"extras": []any{"grommets", "hem"}}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Equal(t, 150.0, vars["extras"])

	_, err = Resolve(sections, InputSet{"extras": []any{"grommets", "zipper"}}, activeAll(sections), nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindInvalidInput, err.Kind)
	}
}

func TestResolve_TextExcludedEvenWithUseInFormula(t *testing.T) {
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "note", Type: models.FieldText, UseInFormula: true},
		{Key: "upload", Type: models.FieldFile, UseInFormula: true},
	}}}

	vars, err := Resolve(sections, InputSet{"note": "hello", "upload": "s3://x"}, activeAll(sections), nil)
	assert.Nil(t, err)
	assert.Empty(t, vars)
}

func TestResolve_RequiredField(t *testing.T) {
	rule := &models.ConditionalRule{Field: "mode", Operator: models.OpEquals, Value: "custom"}
	sections := []models.Section{{Key: "s", Fields: []models.Field{
		{Key: "mode", Type: models.FieldSelect, UseInFormula: true, Options: []models.FieldOption{{Value: "custom"}, {Value: "standard"}}},
		{Key: "material", Type: models.FieldSelect, Required: true, UseInFormula: true, ShowIf: rule,
			Options: []models.FieldOption{{Value: "vinyl"}}},
	}}}

	// Active required field without input fails.
	inputs := InputSet{"mode": "custom"}
	active := ComputeActiveFields(sections, inputs)
	_, err := Resolve(sections, inputs, active, nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindMissingRequiredField, err.Kind)
		assert.Equal(t, "material", err.Field)
	}

	// Inactive required field is exempt.
	inputs = InputSet{"mode": "standard"}
	active = ComputeActiveFields(sections, inputs)
	_, err = Resolve(sections, inputs, active, nil)
	assert.Nil(t, err)

	// Empty string counts as absent.
	inputs = InputSet{"mode": "custom", "material": "  "}
	active = ComputeActiveFields(sections, inputs)
	_, err = Resolve(sections, inputs, active, nil)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindMissingRequiredField, err.Kind)
	}
}
