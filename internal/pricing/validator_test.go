package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priceforge/priceforge_api/internal/models"
)

func hasIssue(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestValidate_ValidTemplate(t *testing.T) {
	engine := newTestEngine()
	res := engine.Validate(bannerTemplate())

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"height_cm", "unit_m2_price", "width_cm"}, res.Variables)
}

func TestValidate_UnknownVariable(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.PricingFormula = "width_cm * height_cm / 10000 * unit_m2_price + foo"

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "UNKNOWN_VARIABLE"))

	var found bool
	for _, issue := range res.Errors {
		if issue.Code == "UNKNOWN_VARIABLE" && issue.Field == "foo" {
			found = true
		}
	}
	assert.True(t, found, "error must name the offending identifier")
}

func TestValidate_FormulaSyntax(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.PricingFormula = "(width_cm *"

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "FORMULA_SYNTAX"))
	assert.Empty(t, res.Variables)
}

func TestValidate_NonNumericFormulaField(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{Key: "notes", Fields: []models.Field{
		{Key: "note", Type: models.FieldTextarea, UseInFormula: true},
	}})

	res := engine.Validate(tpl)
	assert.True(t, res.Valid, "non-numeric useInFormula is a warning, not an error")
	assert.True(t, hasIssue(res.Warnings, "NON_NUMERIC_FORMULA_FIELD"))
}

func TestValidate_DuplicateFieldKey(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{Key: "extra", Fields: []models.Field{
		{Key: "width_cm", Type: models.FieldNumber, UseInFormula: true},
	}})

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "DUPLICATE_FIELD_KEY"))
}

func TestValidate_RuleReferencesMissingField(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{Key: "cond", Fields: []models.Field{
		{Key: "finish", Type: models.FieldSelect, UseInFormula: false,
			ShowIf: &models.ConditionalRule{Field: "ghost", Operator: models.OpEquals, Value: "x"}},
	}})

	res := engine.Validate(tpl)
	assert.True(t, res.Valid)
	assert.True(t, hasIssue(res.Warnings, "UNREACHABLE_FIELD"))
}

func TestValidate_VisibilityCycle(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{Key: "cyc", Fields: []models.Field{
		{Key: "a", Type: models.FieldCheckbox,
			ShowIf: &models.ConditionalRule{Field: "b", Operator: models.OpEquals, Value: true}},
		{Key: "b", Type: models.FieldCheckbox,
			ShowIf: &models.ConditionalRule{Field: "a", Operator: models.OpEquals, Value: true}},
	}})

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "VISIBILITY_CYCLE"))
}

func TestValidate_SelfReferencingRule(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.Sections = append(tpl.Sections, models.Section{Key: "self", Fields: []models.Field{
		{Key: "a", Type: models.FieldCheckbox,
			ShowIf: &models.ConditionalRule{Field: "a", Operator: models.OpEquals, Value: true}},
	}})

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "VISIBILITY_CYCLE"))
}

func TestValidate_TierGapsAndOverlaps(t *testing.T) {
	engine := newTestEngine()

	// Gap between 9 and 20.
	tpl := bannerTemplate()
	tpl.DiscountTiers = models.TierList{
		{MinQty: 1, MaxQty: intPtr(9), Discount: 0},
		{MinQty: 20, MaxQty: nil, Discount: 10},
	}
	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "TIER_GAP"))

	// Overlap at 10.
	tpl = bannerTemplate()
	tpl.DiscountTiers = models.TierList{
		{MinQty: 1, MaxQty: intPtr(10), Discount: 0},
		{MinQty: 10, MaxQty: nil, Discount: 10},
	}
	res = engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "TIER_OVERLAP"))

	// Closed top tier without a max quantity leaves high quantities uncovered.
	tpl = bannerTemplate()
	tpl.DiscountTiers = models.TierList{
		{MinQty: 1, MaxQty: intPtr(100), Discount: 5},
	}
	res = engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "TIER_GAP"))

	// Contiguous set covering the whole domain is valid.
	tpl = bannerTemplate()
	tpl.DiscountTiers = models.TierList{
		{MinQty: 1, MaxQty: intPtr(9), Discount: 0},
		{MinQty: 10, MaxQty: intPtr(49), Discount: 10},
		{MinQty: 50, MaxQty: nil, Discount: 20},
	}
	res = engine.Validate(tpl)
	assert.True(t, res.Valid)
}

func TestValidate_ExpressConfiguration(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.HasExpressOption = true
	tpl.ExpressMultiplier = 0

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "EXPRESS_MULTIPLIER"))
}

func TestValidate_QuantityBounds(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.MinQuantity = 10
	tpl.MaxQuantity = intPtr(5)

	res := engine.Validate(tpl)
	assert.False(t, res.Valid)
	assert.True(t, hasIssue(res.Errors, "QUANTITY_BOUNDS"))
}

func TestValidate_MetaShadowWarning(t *testing.T) {
	engine := newTestEngine()
	tpl := bannerTemplate()
	tpl.PricingMeta["width_cm"] = 1

	res := engine.Validate(tpl)
	assert.True(t, res.Valid)
	assert.True(t, hasIssue(res.Warnings, "VARIABLE_SHADOWED"))
}
