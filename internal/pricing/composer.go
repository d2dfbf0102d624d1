package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/priceforge/priceforge_api/internal/models"
)

// Line is a single itemized entry of a price breakdown. Values are per-unit
// amounts except for the closing total line.
type Line struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Formula string  `json:"formula,omitempty"`
}

// Breakdown is the immutable result of a price composition.
type Breakdown struct {
	Lines     []Line  `json:"lines"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

// Engine composes prices from template snapshots and shopper inputs. It holds
// only configuration, carries no mutable state, and is safe for concurrent
// use from any number of requests.
type Engine struct {
	limits    Limits
	precision int
}

// NewEngine creates an Engine with the given formula limits and minor-unit
// rounding precision (2 for most currencies).
func NewEngine(limits Limits, precision int) *Engine {
	if precision < 0 {
		precision = 2
	}
	return &Engine{limits: limits, precision: precision}
}

// WithPrecision returns an engine rounding at the given minor-unit precision
// with the same formula limits. Zero is valid (zero-decimal currencies such
// as JPY); a negative precision keeps the engine's default.
func (e *Engine) WithPrecision(precision int) *Engine {
	if precision < 0 || precision == e.precision {
		return e
	}
	clone := *e
	clone.precision = precision
	return &clone
}

// ActiveFields returns the sorted keys of fields currently visible for the
// inputs, independent of any price computation.
func (e *Engine) ActiveFields(tpl *models.Template, inputs InputSet) []string {
	active := ComputeActiveFields(tpl.Sections, inputs)
	keys := make([]string, 0, len(active))
	for k := range active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ComposePrice runs the full calculation pipeline: visibility filtering,
// variable resolution, formula evaluation, express multiplier, quantity-tier
// discount, and quantity bounds. It is a pure function of its arguments; the
// storefront preview and the authoritative backend path call the same code
// and therefore produce bit-identical results.
func (e *Engine) ComposePrice(tpl *models.Template, inputs InputSet, quantity int) (*Breakdown, *Error) {
	active := ComputeActiveFields(tpl.Sections, inputs)

	vars, err := Resolve(tpl.Sections, inputs, active, tpl.PricingMeta)
	if err != nil {
		return nil, err
	}

	if err := e.checkQuantity(tpl, quantity); err != nil {
		return nil, err
	}

	unitBase, err := Evaluate(tpl.PricingFormula, vars, e.limits)
	if err != nil {
		return nil, err
	}

	lines := []Line{{
		Label:   "Base price",
		Value:   e.round(unitBase),
		Formula: tpl.PricingFormula,
	}}
	lines = append(lines, e.surchargeLines(tpl, inputs, active)...)

	unit := unitBase
	if tpl.HasExpressOption {
		if key := tpl.ExpressKey(); key != "" {
			if _, ok := active[key]; ok && isTruthy(inputs[key]) {
				surcharge := unit * (tpl.ExpressMultiplier - 1)
				unit *= tpl.ExpressMultiplier
				label := tpl.ExpressLabel
				if label == "" {
					label = "Express production"
				}
				lines = append(lines, Line{Label: label, Value: e.round(surcharge)})
			}
		}
	}

	if tier := matchTier(tpl.DiscountTiers, quantity); tier != nil && tier.Discount > 0 {
		discount := unit * tier.Discount / 100
		unit *= 1 - tier.Discount/100
		lines = append(lines, Line{
			Label: fmt.Sprintf("Quantity discount (%s%%)", trimFloat(tier.Discount)),
			Value: -e.round(discount),
		})
	}

	total := e.round(unit * float64(quantity))
	lines = append(lines, Line{Label: "Total", Value: total})

	return &Breakdown{
		Lines:     lines,
		UnitPrice: e.round(unit),
		Quantity:  quantity,
		Total:     total,
	}, nil
}

func (e *Engine) checkQuantity(tpl *models.Template, quantity int) *Error {
	minQty := tpl.MinQuantity
	if minQty < 1 {
		minQty = 1
	}
	if quantity < minQty {
		msg := fmt.Sprintf("quantity must be at least %d", minQty)
		if tpl.MinQuantityMessage != nil && *tpl.MinQuantityMessage != "" {
			msg = *tpl.MinQuantityMessage
		}
		return newError(KindQuantityOutOfRange, "quantity", "%s", msg)
	}
	if tpl.MaxQuantity != nil && quantity > *tpl.MaxQuantity {
		msg := fmt.Sprintf("quantity must be at most %d", *tpl.MaxQuantity)
		if tpl.MaxQuantityMessage != nil && *tpl.MaxQuantityMessage != "" {
			msg = *tpl.MaxQuantityMessage
		}
		return newError(KindQuantityOutOfRange, "quantity", "%s", msg)
	}
	return nil
}

// surchargeLines emits informational per-option lines for selected options
// carrying a price, in section/field order. The amounts are already part of
// the formula variables, so only fields that feed the formula qualify; the
// lines exist for breakdown transparency only.
func (e *Engine) surchargeLines(tpl *models.Template, inputs InputSet, active map[string]struct{}) []Line {
	var lines []Line
	for _, section := range tpl.Sections {
		for _, field := range section.Fields {
			if _, ok := active[field.Key]; !ok {
				continue
			}
			if !field.UseInFormula || !field.Type.IsOptionBased() || !inputs.has(field.Key) {
				continue
			}

			raw := inputs[field.Key]
			var selected []any
			if field.Type.IsMultiSelect() {
				if list, ok := toList(raw); ok {
					selected = list
				} else {
					selected = []any{raw}
				}
			} else {
				selected = []any{raw}
			}

			for _, item := range selected {
				opt := matchOption(field.Options, item)
				if opt == nil || opt.Price == 0 {
					continue
				}
				label := opt.Label
				if label == "" {
					label = opt.Value
				}
				if field.Label != "" {
					label = field.Label + ": " + label
				}
				lines = append(lines, Line{Label: label, Value: e.round(opt.Price)})
			}
		}
	}
	return lines
}

// matchTier returns the first tier covering the quantity. The validator
// guarantees tiers are contiguous and non-overlapping, so at most one matches.
func matchTier(tiers []models.DiscountTier, quantity int) *models.DiscountTier {
	for i := range tiers {
		if tiers[i].Matches(quantity) {
			return &tiers[i]
		}
	}
	return nil
}

// round applies half-away-from-zero rounding at the engine's minor-unit
// precision. The storefront preview rounds identically, which keeps the two
// call paths bit-equal.
func (e *Engine) round(v float64) float64 {
	scale := math.Pow(10, float64(e.precision))
	return math.Round(v*scale) / scale
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
