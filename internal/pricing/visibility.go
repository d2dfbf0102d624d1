package pricing

import (
	"strings"

	"github.com/priceforge/priceforge_api/internal/models"
)

// ComputeActiveFields returns the set of field keys currently visible to the
// shopper given the raw inputs. A field with no showIf rule is always active.
// Rules are single-hop: a rule reads the referenced field's raw input, never
// its computed visibility, so a single pass suffices and the result is
// idempotent for the same inputs.
func ComputeActiveFields(sections []models.Section, inputs InputSet) map[string]struct{} {
	active := make(map[string]struct{})
	for _, section := range sections {
		for _, field := range section.Fields {
			if field.ShowIf == nil || ruleSatisfied(*field.ShowIf, inputs) {
				active[field.Key] = struct{}{}
			}
		}
	}
	return active
}

// ruleSatisfied evaluates a single conditional rule against the inputs.
// An absent referenced input never satisfies a rule, notEquals included, and
// numeric comparisons fail closed when either side is non-numeric.
func ruleSatisfied(rule models.ConditionalRule, inputs InputSet) bool {
	raw, present := inputs[rule.Field]
	if !present || raw == nil {
		return false
	}

	switch rule.Operator {
	case models.OpEquals:
		return normalizeScalar(raw) == normalizeScalar(rule.Value)
	case models.OpNotEquals:
		return normalizeScalar(raw) != normalizeScalar(rule.Value)
	case models.OpGreaterThan:
		a, ok1 := toNumber(raw)
		b, ok2 := toNumber(rule.Value)
		return ok1 && ok2 && a > b
	case models.OpLessThan:
		a, ok1 := toNumber(raw)
		b, ok2 := toNumber(rule.Value)
		return ok1 && ok2 && a < b
	case models.OpContains:
		if list, ok := toList(raw); ok {
			want := normalizeScalar(rule.Value)
			for _, item := range list {
				if normalizeScalar(item) == want {
					return true
				}
			}
			return false
		}
		if s, ok := raw.(string); ok {
			if sub, ok := rule.Value.(string); ok {
				return strings.Contains(s, sub)
			}
		}
		return false
	case models.OpIn:
		list, ok := toList(rule.Value)
		if !ok {
			return false
		}
		got := normalizeScalar(raw)
		for _, item := range list {
			if normalizeScalar(item) == got {
				return true
			}
		}
		return false
	}
	return false
}
