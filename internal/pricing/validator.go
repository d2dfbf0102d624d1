package pricing

import (
	"fmt"

	"github.com/priceforge/priceforge_api/internal/models"
)

// Issue is a single validation finding.
type Issue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult is the advisory outcome of a static template check. The
// composer independently re-validates at calculation time by construction
// (unknown variables fail evaluation), so this report never gates a compute.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Errors    []Issue  `json:"errors"`
	Warnings  []Issue  `json:"warnings"`
	Variables []string `json:"variables"`
}

func (r *ValidationResult) addError(code, field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(code, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate statically checks a template definition and its formula. It never
// executes the formula against sample data.
func (e *Engine) Validate(tpl *models.Template) *ValidationResult {
	res := &ValidationResult{Errors: []Issue{}, Warnings: []Issue{}, Variables: []string{}}

	fieldsByKey := e.checkStructure(tpl, res)
	e.checkFormula(tpl, fieldsByKey, res)
	e.checkVisibilityRules(tpl, fieldsByKey, res)
	e.checkTiers(tpl, res)
	e.checkQuantityAndExpress(tpl, res)

	res.Valid = len(res.Errors) == 0
	return res
}

func (e *Engine) checkStructure(tpl *models.Template, res *ValidationResult) map[string]models.Field {
	fieldsByKey := make(map[string]models.Field)
	sectionKeys := make(map[string]struct{})

	for _, section := range tpl.Sections {
		if section.Key == "" {
			res.addError("EMPTY_SECTION_KEY", "", "section with empty key")
		} else if _, dup := sectionKeys[section.Key]; dup {
			res.addError("DUPLICATE_SECTION_KEY", section.Key, "section key %q is used more than once", section.Key)
		}
		sectionKeys[section.Key] = struct{}{}

		for _, field := range section.Fields {
			if field.Key == "" {
				res.addError("EMPTY_FIELD_KEY", "", "field with empty key in section %q", section.Key)
				continue
			}
			if _, dup := fieldsByKey[field.Key]; dup {
				res.addError("DUPLICATE_FIELD_KEY", field.Key, "field key %q is used more than once", field.Key)
				continue
			}
			fieldsByKey[field.Key] = field

			if field.UseInFormula && !field.Type.IsNumeric() {
				res.addWarning("NON_NUMERIC_FORMULA_FIELD", field.Key,
					"field %q has type %s and cannot contribute a formula variable", field.Key, field.Type)
			}
			if field.Type.IsOptionBased() && len(field.Options) == 0 {
				res.addWarning("NO_OPTIONS", field.Key, "field %q has no options", field.Key)
			}
			if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
				res.addError("INVALID_BOUNDS", field.Key, "field %q has min greater than max", field.Key)
			}
		}
	}
	return fieldsByKey
}

func (e *Engine) checkFormula(tpl *models.Template, fieldsByKey map[string]models.Field, res *ValidationResult) {
	vars, err := ExtractVariables(tpl.PricingFormula, e.limits)
	if err != nil {
		res.addError("FORMULA_SYNTAX", "", "%s", err.Message)
		return
	}
	res.Variables = vars

	for _, name := range vars {
		if _, ok := tpl.PricingMeta[name]; ok {
			continue
		}
		field, ok := fieldsByKey[name]
		if ok && field.UseInFormula && field.Type.IsNumeric() {
			continue
		}
		res.addError("UNKNOWN_VARIABLE", name,
			"formula references %q, which maps to no formula field and no pricingMeta key", name)
	}

	for name := range tpl.PricingMeta {
		if field, ok := fieldsByKey[name]; ok && field.UseInFormula && field.Type.IsNumeric() {
			res.addWarning("VARIABLE_SHADOWED", name,
				"pricingMeta key %q is shadowed by a field with the same key", name)
		}
	}
}

// checkVisibilityRules flags rules pointing at missing fields and rejects
// mutual visibility dependencies. Each field has at most one outgoing rule
// edge, so cycle detection is a walk over a functional graph.
func (e *Engine) checkVisibilityRules(tpl *models.Template, fieldsByKey map[string]models.Field, res *ValidationResult) {
	next := make(map[string]string)
	for key, field := range fieldsByKey {
		if field.ShowIf == nil {
			continue
		}
		target := field.ShowIf.Field
		if _, ok := fieldsByKey[target]; !ok {
			res.addWarning("UNREACHABLE_FIELD", key,
				"field %q is shown conditionally on %q, which does not exist", key, target)
			continue
		}
		if target == key {
			res.addError("VISIBILITY_CYCLE", key, "field %q depends on its own visibility input", key)
			continue
		}
		next[key] = target
	}

	reported := make(map[string]struct{})
	for start := range next {
		seen := map[string]int{}
		cur := start
		for step := 0; ; step++ {
			seen[cur] = step
			n, ok := next[cur]
			if !ok {
				break
			}
			if _, visited := seen[n]; visited {
				if _, done := reported[n]; !done {
					reported[n] = struct{}{}
					res.addError("VISIBILITY_CYCLE", n,
						"conditional visibility of %q forms a dependency cycle", n)
				}
				break
			}
			cur = n
		}
	}
}

// checkTiers enforces that tiers are contiguous, non-overlapping, and cover
// the quantity domain up to the open-ended top tier, so exactly one tier
// matches any purchasable quantity.
func (e *Engine) checkTiers(tpl *models.Template, res *ValidationResult) {
	tiers := tpl.DiscountTiers
	if len(tiers) == 0 {
		return
	}

	for i, tier := range tiers {
		if tier.MaxQty != nil && *tier.MaxQty < tier.MinQty {
			res.addError("INVALID_TIER", "", "tier %d has maxQty below minQty", i)
			return
		}
		if tier.Discount < 0 || tier.Discount > 100 {
			res.addError("INVALID_TIER", "", "tier %d discount must be between 0 and 100", i)
		}
	}

	minQty := tpl.MinQuantity
	if minQty < 1 {
		minQty = 1
	}
	if tiers[0].MinQty > minQty {
		res.addError("TIER_GAP", "", "quantities below %d are not covered by any tier", tiers[0].MinQty)
	}

	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if prev.MaxQty == nil {
			res.addError("TIER_OVERLAP", "", "tier %d follows an open-ended tier", i)
			return
		}
		switch {
		case cur.MinQty <= *prev.MaxQty:
			res.addError("TIER_OVERLAP", "", "tier %d overlaps the previous tier", i)
		case cur.MinQty > *prev.MaxQty+1:
			res.addError("TIER_GAP", "", "quantities between %d and %d are not covered", *prev.MaxQty+1, cur.MinQty-1)
		}
	}

	last := tiers[len(tiers)-1]
	if last.MaxQty != nil {
		if tpl.MaxQuantity == nil {
			res.addError("TIER_GAP", "", "last tier must be open-ended when no max quantity is set")
		} else if *last.MaxQty < *tpl.MaxQuantity {
			res.addError("TIER_GAP", "", "quantities above %d are not covered by any tier", *last.MaxQty)
		}
	}
}

func (e *Engine) checkQuantityAndExpress(tpl *models.Template, res *ValidationResult) {
	if tpl.MaxQuantity != nil && *tpl.MaxQuantity < tpl.MinQuantity {
		res.addError("QUANTITY_BOUNDS", "quantity", "maxQuantity is below minQuantity")
	}
	if tpl.HasExpressOption {
		if tpl.ExpressMultiplier <= 0 {
			res.addError("EXPRESS_MULTIPLIER", "", "express multiplier must be positive")
		}
		if tpl.ExpressKey() == "" {
			res.addWarning("EXPRESS_FIELD_MISSING", "",
				"express option is enabled but no express field is configured")
		}
	}
}
