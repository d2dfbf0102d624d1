package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priceforge/priceforge_api/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// bannerTemplate mirrors a typical printed-banner template: square-meter
// pricing with material surcharge and an express checkbox.
func bannerTemplate() *models.Template {
	return &models.Template{
		ID:             1,
		Name:           "Banner",
		PricingFormula: "width_cm * height_cm / 10000 * unit_m2_price",
		PricingMeta:    models.MetaMap{"unit_m2_price": 1500},
		MinQuantity:    1,
		Sections: models.SectionList{
			{
				Key:    "size",
				Role:   models.RoleSize,
				Layout: models.LayoutSplit,
				Fields: []models.Field{
					{Key: "width_cm", Type: models.FieldNumber, UseInFormula: true, Required: true},
					{Key: "height_cm", Type: models.FieldNumber, UseInFormula: true, Required: true},
				},
			},
			{
				Key:    "express",
				Role:   models.RoleExpress,
				Layout: models.LayoutCheckboxList,
				Fields: []models.Field{
					{Key: "express", Type: models.FieldCheckbox, UseInFormula: false},
				},
			},
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(DefaultLimits, 2)
}

func TestComposePrice_BaseFormula(t *testing.T) {
	engine := newTestEngine()
	inputs := InputSet{"width_cm": 100.0, "height_cm": 50.0}

	bd, err := engine.ComposePrice(bannerTemplate(), inputs, 1)
	assert.Nil(t, err)
	assert.Equal(t, 750.0, bd.Total)
	assert.Equal(t, 750.0, bd.UnitPrice)
	assert.Equal(t, 1, bd.Quantity)
	if assert.NotEmpty(t, bd.Lines) {
		assert.Equal(t, "Base price", bd.Lines[0].Label)
		assert.Equal(t, 750.0, bd.Lines[0].Value)
		assert.Equal(t, "width_cm * height_cm / 10000 * unit_m2_price", bd.Lines[0].Formula)
		assert.Equal(t, "Total", bd.Lines[len(bd.Lines)-1].Label)
	}
}

func TestComposePrice_ExpressMultiplier(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.HasExpressOption = true
	tpl.ExpressMultiplier = 1.5
	tpl.ExpressLabel = "Express production"

	inputs := InputSet{"width_cm": 100.0, "height_cm": 50.0, "express": true}
	bd, err := engine.ComposePrice(tpl, inputs, 1)
	assert.Nil(t, err)
	assert.Equal(t, 1125.0, bd.Total)

	var expressLine *Line
	for i := range bd.Lines {
		if bd.Lines[i].Label == "Express production" {
			expressLine = &bd.Lines[i]
		}
	}
	if assert.NotNil(t, expressLine) {
		assert.Equal(t, 375.0, expressLine.Value)
	}

	// Express not selected: no multiplier, no line.
	bd, err = engine.ComposePrice(tpl, InputSet{"width_cm": 100.0, "height_cm": 50.0}, 1)
	assert.Nil(t, err)
	assert.Equal(t, 750.0, bd.Total)
	assert.Len(t, bd.Lines, 2)
}

func TestComposePrice_DiscountTiers(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.DiscountTiers = models.TierList{
		{MinQty: 1, MaxQty: intPtr(9), Discount: 0},
		{MinQty: 10, MaxQty: nil, Discount: 10},
	}
	inputs := InputSet{"width_cm": 100.0, "height_cm": 50.0}

	// Quantity 10 lands in the 10% tier: unit 675, total 6750.
	bd, err := engine.ComposePrice(tpl, inputs, 10)
	assert.Nil(t, err)
	assert.Equal(t, 675.0, bd.UnitPrice)
	assert.Equal(t, 6750.0, bd.Total)

	var discountLine *Line
	for i := range bd.Lines {
		if bd.Lines[i].Label == "Quantity discount (10%)" {
			discountLine = &bd.Lines[i]
		}
	}
	if assert.NotNil(t, discountLine) {
		assert.Equal(t, -75.0, discountLine.Value)
	}

	// Quantity 9 stays in the zero tier and emits no discount line.
	bd, err = engine.ComposePrice(tpl, inputs, 9)
	assert.Nil(t, err)
	assert.Equal(t, 6750.0, bd.Total)
	assert.Len(t, bd.Lines, 2)
}

func TestComposePrice_MissingRequiredField(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{
		Key: "material",
		Fields: []models.Field{
			{Key: "material", Type: models.FieldSelect, Required: true, UseInFormula: true,
				Options: []models.FieldOption{{Value: "vinyl"}}},
		},
	})

	_, err := engine.ComposePrice(tpl, InputSet{"width_cm": 100.0, "height_cm": 50.0}, 1)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindMissingRequiredField, err.Kind)
		assert.Equal(t, "material", err.Field)
		assert.True(t, err.Recoverable())
	}
}

func TestComposePrice_QuantityOutOfRange(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.MinQuantity = 5
	tpl.MinQuantityMessage = strPtr("Minimum 5 db rendelhető")

	_, err := engine.ComposePrice(tpl, InputSet{"width_cm": 100.0, "height_cm": 50.0}, 3)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindQuantityOutOfRange, err.Kind)
		assert.Equal(t, "Minimum 5 db rendelhető", err.Message)
	}

	tpl.MaxQuantity = intPtr(20)
	_, err = engine.ComposePrice(tpl, InputSet{"width_cm": 100.0, "height_cm": 50.0}, 25)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindQuantityOutOfRange, err.Kind)
	}
}

func TestComposePrice_UnknownVariable(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.PricingFormula = "foo * 2"

	_, err := engine.ComposePrice(tpl, InputSet{"width_cm": 100.0, "height_cm": 50.0}, 1)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindUnknownVariable, err.Kind)
		assert.Equal(t, "foo", err.Field)
		assert.False(t, err.Recoverable())
	}
}

func TestComposePrice_SurchargeLines(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.PricingFormula = "width_cm * height_cm / 10000 * unit_m2_price + material"
	tpl.Sections = append(tpl.Sections, models.Section{
		Key: "options",
		Fields: []models.Field{
			{Key: "material", Label: "Material", Type: models.FieldSelect, UseInFormula: true,
				Options: []models.FieldOption{
					{Value: "vinyl", Label: "Vinyl", Price: 0},
					{Value: "canvas", Label: "Canvas", Price: 250},
				}},
		},
	})

	inputs := InputSet{"width_cm": 100.0, "height_cm": 50.0, "material": "canvas"}
	bd, err := engine.ComposePrice(tpl, inputs, 1)
	assert.Nil(t, err)
	assert.Equal(t, 1000.0, bd.Total)

	var surcharge *Line
	for i := range bd.Lines {
		if bd.Lines[i].Label == "Material: Canvas" {
			surcharge = &bd.Lines[i]
		}
	}
	if assert.NotNil(t, surcharge) {
		assert.Equal(t, 250.0, surcharge.Value)
	}
}

func TestComposePrice_InformationalOptionNoSurchargeLine(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{
		Key: "finish",
		Fields: []models.Field{
			{Key: "finish", Label: "Finish", Type: models.FieldSelect, UseInFormula: false,
				Options: []models.FieldOption{
					{Value: "gloss", Label: "Gloss", Price: 120},
				}},
		},
	})

	inputs := InputSet{"width_cm": 100.0, "height_cm": 50.0, "finish": "gloss"}
	bd, err := engine.ComposePrice(tpl, inputs, 1)
	assert.Nil(t, err)
	// The option price never reaches the formula, so the breakdown must not
	// show it as a surcharge either.
	assert.Equal(t, 750.0, bd.Total)
	assert.Len(t, bd.Lines, 2)
	for _, line := range bd.Lines {
		assert.NotEqual(t, "Finish: Gloss", line.Label)
	}
}

func TestComposePrice_Rounding(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.PricingMeta = models.MetaMap{"unit_m2_price": 999.99}

	inputs := InputSet{"width_cm": 33.0, "height_cm": 77.0}
	bd, err := engine.ComposePrice(tpl, inputs, 3)
	assert.Nil(t, err)
	// 33*77/10000*999.99 = 254.0974... per unit; total rounded to 2 decimals.
	assert.Equal(t, 762.29, bd.Total)
}

func TestComposePrice_PerCurrencyPrecision(t *testing.T) {
	tpl := bannerTemplate()
	tpl.PricingMeta = models.MetaMap{"unit_m2_price": 999.99}
	inputs := InputSet{"width_cm": 33.0, "height_cm": 77.0}

	// A zero-decimal currency rounds every amount to whole units.
	engine := newTestEngine().WithPrecision(0)
	bd, err := engine.ComposePrice(tpl, inputs, 3)
	assert.Nil(t, err)
	assert.Equal(t, 254.0, bd.UnitPrice)
	assert.Equal(t, 762.0, bd.Total)

	// Negative keeps the default; a matching precision reuses the engine.
	base := newTestEngine()
	assert.Same(t, base, base.WithPrecision(-1))
	assert.Same(t, base, base.WithPrecision(2))
}

func TestComposePrice_Deterministic(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.HasExpressOption = true
	tpl.ExpressMultiplier = 1.5
	tpl.DiscountTiers = models.TierList{
		{MinQty: 1, MaxQty: intPtr(9), Discount: 0},
		{MinQty: 10, MaxQty: nil, Discount: 12.5},
	}
	inputs := InputSet{"width_cm": 123.4, "height_cm": 56.7, "express": true}

	first, err := engine.ComposePrice(tpl, inputs, 25)
	assert.Nil(t, err)
	for i := 0; i < 50; i++ {
		again, err := engine.ComposePrice(tpl, inputs, 25)
		assert.Nil(t, err)
		assert.Equal(t, first, again)
	}
}

func TestActiveFields(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{
		Key: "finish",
		Fields: []models.Field{
			{Key: "lamination", Type: models.FieldSelect, UseInFormula: true,
				ShowIf: &models.ConditionalRule{Field: "express", Operator: models.OpEquals, Value: true}},
		},
	})

	keys := engine.ActiveFields(tpl, InputSet{})
	assert.Equal(t, []string{"express", "height_cm", "width_cm"}, keys)

	keys = engine.ActiveFields(tpl, InputSet{"express": true})
	assert.Equal(t, []string{"express", "height_cm", "lamination", "width_cm"}, keys)
}
