package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// TemplateScope enumerates how a template is matched to storefront products.
type TemplateScope string

const (
	ScopeProduct    TemplateScope = "PRODUCT"
	ScopeCollection TemplateScope = "COLLECTION"
	ScopeVendor     TemplateScope = "VENDOR"
	ScopeTag        TemplateScope = "TAG"
	ScopeGlobal     TemplateScope = "GLOBAL"
)

// SectionLayout enumerates the supported section layout types.
type SectionLayout string

const (
	LayoutVertical     SectionLayout = "VERTICAL"
	LayoutHorizontal   SectionLayout = "HORIZONTAL"
	LayoutGrid         SectionLayout = "GRID"
	LayoutSplit        SectionLayout = "SPLIT"
	LayoutCheckboxList SectionLayout = "CHECKBOX_LIST"
)

// SectionRole enumerates built-in semantic roles a section may carry.
type SectionRole string

const (
	RoleSize       SectionRole = "SIZE"
	RoleQuantity   SectionRole = "QUANTITY"
	RoleExpress    SectionRole = "EXPRESS"
	RoleNotes      SectionRole = "NOTES"
	RoleFileUpload SectionRole = "FILE_UPLOAD"
)

// FieldType enumerates the supported field input types.
type FieldType string

const (
	FieldNumber        FieldType = "NUMBER"
	FieldText          FieldType = "TEXT"
	FieldSelect        FieldType = "SELECT"
	FieldRadio         FieldType = "RADIO"
	FieldCheckbox      FieldType = "CHECKBOX"
	FieldTextarea      FieldType = "TEXTAREA"
	FieldFile          FieldType = "FILE"
	FieldProductCard   FieldType = "PRODUCT_CARD"
	FieldDeliveryTime  FieldType = "DELIVERY_TIME"
	FieldExtras        FieldType = "EXTRAS"
	FieldGraphicSelect FieldType = "GRAPHIC_SELECT"
)

// IsNumeric reports whether the field type can contribute a numeric variable
// to the pricing formula.
func (t FieldType) IsNumeric() bool {
	switch t {
	case FieldNumber, FieldSelect, FieldRadio, FieldCheckbox,
		FieldProductCard, FieldDeliveryTime, FieldExtras, FieldGraphicSelect:
		return true
	}
	return false
}

// IsOptionBased reports whether the field resolves its value through its
// option list.
func (t FieldType) IsOptionBased() bool {
	switch t {
	case FieldSelect, FieldRadio, FieldProductCard, FieldDeliveryTime,
		FieldExtras, FieldGraphicSelect:
		return true
	}
	return false
}

// IsMultiSelect reports whether the field accepts multiple selected options.
func (t FieldType) IsMultiSelect() bool {
	return t == FieldExtras
}

// RuleOperator enumerates conditional visibility operators.
type RuleOperator string

const (
	OpEquals      RuleOperator = "equals"
	OpNotEquals   RuleOperator = "notEquals"
	OpGreaterThan RuleOperator = "greaterThan"
	OpLessThan    RuleOperator = "lessThan"
	OpContains    RuleOperator = "contains"
	OpIn          RuleOperator = "in"
)

// ConditionalRule makes a field visible only when another field's raw input
// satisfies the operator. Rules are single-hop: Field names another field's
// key, never a computed visibility.
type ConditionalRule struct {
	Field    string       `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    any          `json:"value"`
}

// FieldOption is a selectable option carrying an optional price surcharge.
type FieldOption struct {
	Value    string            `json:"value"`
	Label    string            `json:"label,omitempty"`
	Price    float64           `json:"price,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Field is an atomic input unit within a section. Key doubles as the formula
// variable name when UseInFormula is set.
type Field struct {
	Key          string           `json:"key"`
	Label        string           `json:"label,omitempty"`
	Type         FieldType        `json:"type"`
	Required     bool             `json:"required"`
	UseInFormula bool             `json:"useInFormula"`
	DisplayOrder int              `json:"displayOrder"`
	Min          *float64         `json:"min,omitempty"`
	Max          *float64         `json:"max,omitempty"`
	Step         *float64         `json:"step,omitempty"`
	Pattern      string           `json:"pattern,omitempty"`
	Options      []FieldOption    `json:"options,omitempty"`
	ShowIf       *ConditionalRule `json:"showIf,omitempty"`
}

// Section is an ordered group of fields within a template.
type Section struct {
	Key          string        `json:"key"`
	Title        string        `json:"title,omitempty"`
	Layout       SectionLayout `json:"layout"`
	Role         SectionRole   `json:"role,omitempty"`
	Collapsible  bool          `json:"collapsible"`
	DefaultOpen  bool          `json:"defaultOpen"`
	DisplayOrder int           `json:"displayOrder"`
	Presets      []string      `json:"presets,omitempty"`
	Fields       []Field       `json:"fields"`
}

// DiscountTier grants a percentage discount for a quantity range.
// MaxQty == nil denotes the open-ended top tier.
type DiscountTier struct {
	MinQty   int     `json:"minQty"`
	MaxQty   *int    `json:"maxQty"`
	Discount float64 `json:"discount"`
}

// Matches reports whether the tier covers the given quantity.
func (t DiscountTier) Matches(qty int) bool {
	return qty >= t.MinQty && (t.MaxQty == nil || qty <= *t.MaxQty)
}

// SectionList is a JSONB-backed ordered list of sections.
type SectionList []Section

// TierList is a JSONB-backed list of discount tiers.
type TierList []DiscountTier

// MetaMap holds named numeric constants available to the pricing formula.
type MetaMap map[string]float64

// IntList is a JSONB-backed list of integers (quantity presets).
type IntList []int

// Template is a versioned pricing configuration owned by a shop.
// Sections, tiers, meta and presets are stored as JSONB columns.
type Template struct {
	ID                 int            `db:"id" json:"id"`
	PublicID           string         `db:"public_id" json:"publicId"`
	ShopID             int            `db:"shop_id" json:"shopId"`
	Name               string         `db:"name" json:"name"`
	PricingFormula     string         `db:"pricing_formula" json:"pricingFormula"`
	PricingMeta        MetaMap        `db:"pricing_meta" json:"pricingMeta"`
	Scope              TemplateScope  `db:"scope" json:"scope"`
	ScopeValues        pq.StringArray `db:"scope_values" json:"scopeValues"`
	IsActive           bool           `db:"is_active" json:"isActive"`
	Sections           SectionList    `db:"sections" json:"sections"`
	MinQuantity        int            `db:"min_quantity" json:"minQuantity"`
	MaxQuantity        *int           `db:"max_quantity" json:"maxQuantity,omitempty"`
	MinQuantityMessage *string        `db:"min_quantity_message" json:"minQuantityMessage,omitempty"`
	MaxQuantityMessage *string        `db:"max_quantity_message" json:"maxQuantityMessage,omitempty"`
	DiscountTiers      TierList       `db:"discount_tiers" json:"discountTiers,omitempty"`
	HasExpressOption   bool           `db:"has_express_option" json:"hasExpressOption"`
	ExpressMultiplier  float64        `db:"express_multiplier" json:"expressMultiplier,omitempty"`
	ExpressLabel       string         `db:"express_label" json:"expressLabel,omitempty"`
	ExpressFieldKey    string         `db:"express_field_key" json:"expressFieldKey,omitempty"`
	HasNotesField      bool           `db:"has_notes_field" json:"hasNotesField"`
	QuantityPresets    IntList        `db:"quantity_presets" json:"quantityPresets,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

// FieldByKey returns the field with the given key, searching every section.
func (t *Template) FieldByKey(key string) *Field {
	for si := range t.Sections {
		for fi := range t.Sections[si].Fields {
			if t.Sections[si].Fields[fi].Key == key {
				return &t.Sections[si].Fields[fi]
			}
		}
	}
	return nil
}

// ExpressKey returns the field key toggling express production. Falls back to
// the first field of the EXPRESS-role section when not set explicitly.
func (t *Template) ExpressKey() string {
	if t.ExpressFieldKey != "" {
		return t.ExpressFieldKey
	}
	for _, s := range t.Sections {
		if s.Role == RoleExpress && len(s.Fields) > 0 {
			return s.Fields[0].Key
		}
	}
	return ""
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(dest any, src any) error {
	switch b := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(b, dest)
	case string:
		return json.Unmarshal([]byte(b), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

// Value implements driver.Valuer for JSONB storage.
func (s SectionList) Value() (driver.Value, error) { return jsonValue(s) }

// Scan implements sql.Scanner for JSONB storage.
func (s *SectionList) Scan(src any) error { return jsonScan(s, src) }

// Value implements driver.Valuer for JSONB storage.
func (t TierList) Value() (driver.Value, error) { return jsonValue(t) }

// Scan implements sql.Scanner for JSONB storage.
func (t *TierList) Scan(src any) error { return jsonScan(t, src) }

// Value implements driver.Valuer for JSONB storage.
func (m MetaMap) Value() (driver.Value, error) { return jsonValue(m) }

// Scan implements sql.Scanner for JSONB storage.
func (m *MetaMap) Scan(src any) error { return jsonScan(m, src) }

// Value implements driver.Valuer for JSONB storage.
func (l IntList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner for JSONB storage.
func (l *IntList) Scan(src any) error { return jsonScan(l, src) }
