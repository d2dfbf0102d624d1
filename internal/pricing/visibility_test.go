package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/priceforge/priceforge_api/internal/models"
)

func sectionsWithRule(rule *models.ConditionalRule) []models.Section {
	return []models.Section{{
		Key:    "main",
		Layout: models.LayoutVertical,
		Fields: []models.Field{
			{Key: "driver", Type: models.FieldSelect, UseInFormula: true},
			{Key: "dependent", Type: models.FieldNumber, UseInFormula: true, ShowIf: rule},
		},
	}}
}

func isActive(t *testing.T, sections []models.Section, inputs InputSet, key string) bool {
	t.Helper()
	_, ok := ComputeActiveFields(sections, inputs)[key]
	return ok
}

func TestComputeActiveFields_NoRuleAlwaysActive(t *testing.T) {
	sections := sectionsWithRule(nil)
	active := ComputeActiveFields(sections, InputSet{})
	assert.Len(t, active, 2)
}

func TestComputeActiveFields_Equals(t *testing.T) {
	rule := &models.ConditionalRule{Field: "driver", Operator: models.OpEquals, Value: "custom"}
	sections := sectionsWithRule(rule)

	assert.True(t, isActive(t, sections, InputSet{"driver": "custom"}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": "standard"}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{}, "dependent"))

	// Type normalization: 10, 10.0 and "10" compare equal.
	numRule := &models.ConditionalRule{Field: "driver", Operator: models.OpEquals, Value: float64(10)}
	numSections := sectionsWithRule(numRule)
	assert.True(t, isActive(t, numSections, InputSet{"driver": "10"}, "dependent"))
	assert.True(t, isActive(t, numSections, InputSet{"driver": 10.0}, "dependent"))
}

func TestComputeActiveFields_NotEquals(t *testing.T) {
	rule := &models.ConditionalRule{Field: "driver", Operator: models.OpNotEquals, Value: "none"}
	sections := sectionsWithRule(rule)

	assert.True(t, isActive(t, sections, InputSet{"driver": "vinyl"}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": "none"}, "dependent"))
	// An absent referenced input satisfies no rule, notEquals included.
	assert.False(t, isActive(t, sections, InputSet{}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": nil}, "dependent"))
}

func TestComputeActiveFields_NumericComparisons(t *testing.T) {
	gt := &models.ConditionalRule{Field: "driver", Operator: models.OpGreaterThan, Value: float64(100)}
	sections := sectionsWithRule(gt)

	assert.True(t, isActive(t, sections, InputSet{"driver": 150.0}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": 100.0}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": 50.0}, "dependent"))
	// Fails closed on non-numeric input.
	assert.False(t, isActive(t, sections, InputSet{"driver": "tall"}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": true}, "dependent"))

	lt := &models.ConditionalRule{Field: "driver", Operator: models.OpLessThan, Value: float64(100)}
	ltSections := sectionsWithRule(lt)
	assert.True(t, isActive(t, ltSections, InputSet{"driver": "50"}, "dependent"))
	assert.False(t, isActive(t, ltSections, InputSet{"driver": 150.0}, "dependent"))
}

func TestComputeActiveFields_Contains(t *testing.T) {
	rule := &models.ConditionalRule{Field: "driver", Operator: models.OpContains, Value: "lam"}
	sections := sectionsWithRule(rule)

	assert.True(t, isActive(t, sections, InputSet{"driver": "lamination"}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": "matte"}, "dependent"))

	// Array membership.
	assert.True(t, isActive(t, sections, InputSet{"driver": []any{"lam", "uv"}}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": []any{"uv"}}, "dependent"))
}

func TestComputeActiveFields_In(t *testing.T) {
	rule := &models.ConditionalRule{Field: "driver", Operator: models.OpIn, Value: []any{"a", "b"}}
	sections := sectionsWithRule(rule)

	assert.True(t, isActive(t, sections, InputSet{"driver": "a"}, "dependent"))
	assert.False(t, isActive(t, sections, InputSet{"driver": "c"}, "dependent"))
	// Non-array rule value fails closed.
	bad := &models.ConditionalRule{Field: "driver", Operator: models.OpIn, Value: "a"}
	assert.False(t, isActive(t, sectionsWithRule(bad), InputSet{"driver": "a"}, "dependent"))
}

func TestComputeActiveFields_Idempotent(t *testing.T) {
	rule := &models.ConditionalRule{Field: "driver", Operator: models.OpEquals, Value: "x"}
	sections := sectionsWithRule(rule)
	inputs := InputSet{"driver": "x", "dependent": 5.0}

	first := ComputeActiveFields(sections, inputs)
	second := ComputeActiveFields(sections, inputs)
	assert.Equal(t, first, second)
}
