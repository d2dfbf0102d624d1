package pricing

import (
	"github.com/priceforge/priceforge_api/internal/models"
)

// Resolve builds the variable mapping consumed by formula evaluation.
// pricingMeta constants are injected first, then overlaid by values derived
// from active useInFormula fields; on key collision the field value wins.
// Inactive fields contribute nothing and are exempt from the required check.
func Resolve(sections []models.Section, inputs InputSet, active map[string]struct{}, meta models.MetaMap) (map[string]float64, *Error) {
	vars := make(map[string]float64, len(meta)+8)
	for name, value := range meta {
		vars[name] = value
	}

	for _, section := range sections {
		for _, field := range section.Fields {
			if _, ok := active[field.Key]; !ok {
				continue
			}
			if field.Required && !inputs.has(field.Key) {
				return nil, missingRequiredErr(field.Key)
			}
			if !field.UseInFormula || !field.Type.IsNumeric() {
				// TEXT/TEXTAREA/FILE marked useInFormula is a template
				// authoring mistake; the validator warns, the resolver skips.
				continue
			}
			if !inputs.has(field.Key) {
				// Optional field without input: omit the variable rather than
				// defaulting to zero. Formula authors guard via pricingMeta.
				continue
			}

			value, err := resolveField(field, inputs[field.Key])
			if err != nil {
				return nil, err
			}
			vars[field.Key] = value
		}
	}
	return vars, nil
}

func resolveField(field models.Field, raw any) (float64, *Error) {
	switch {
	case field.Type == models.FieldNumber:
		n, ok := toNumber(raw)
		if !ok {
			return 0, invalidInputErr(field.Key, "value is not a number")
		}
		if field.Min != nil && n < *field.Min {
			return 0, invalidInputErr(field.Key, "value %v is below the minimum %v", n, *field.Min)
		}
		if field.Max != nil && n > *field.Max {
			return 0, invalidInputErr(field.Key, "value %v is above the maximum %v", n, *field.Max)
		}
		return n, nil

	case field.Type == models.FieldCheckbox:
		if isTruthy(raw) {
			return 1, nil
		}
		return 0, nil

	case field.Type.IsMultiSelect():
		items, ok := toList(raw)
		if !ok {
			items = []any{raw}
		}
		var sum float64
		for _, item := range items {
			opt := matchOption(field.Options, item)
			if opt == nil {
				return 0, invalidInputErr(field.Key, "value %v matches no option", item)
			}
			sum += opt.Price
		}
		return sum, nil

	case field.Type.IsOptionBased():
		opt := matchOption(field.Options, raw)
		if opt == nil {
			return 0, invalidInputErr(field.Key, "value %v matches no option", raw)
		}
		return opt.Price, nil
	}

	// Unreachable for numeric types; guard anyway.
	return 0, invalidInputErr(field.Key, "field type %s cannot produce a numeric value", field.Type)
}

func matchOption(options []models.FieldOption, raw any) *models.FieldOption {
	want := normalizeScalar(raw)
	for i := range options {
		if normalizeScalar(options[i].Value) == want {
			return &options[i]
		}
	}
	return nil
}
