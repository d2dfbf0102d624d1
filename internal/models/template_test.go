package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountTierMatches(t *testing.T) {
	max := 49
	closed := DiscountTier{MinQty: 10, MaxQty: &max, Discount: 10}
	open := DiscountTier{MinQty: 50, Discount: 20}

	assert.False(t, closed.Matches(9))
	assert.True(t, closed.Matches(10))
	assert.True(t, closed.Matches(49))
	assert.False(t, closed.Matches(50))

	assert.True(t, open.Matches(50))
	assert.True(t, open.Matches(100000))
	assert.False(t, open.Matches(49))
}

func TestFieldByKey(t *testing.T) {
	tpl := Template{Sections: SectionList{
		{Key: "size", Fields: []Field{{Key: "width_cm"}, {Key: "height_cm"}}},
		{Key: "material", Fields: []Field{{Key: "material"}}},
	}}

	f := tpl.FieldByKey("material")
	require.NotNil(t, f)
	assert.Equal(t, "material", f.Key)

	assert.Nil(t, tpl.FieldByKey("missing"))
}

func TestExpressKey(t *testing.T) {
	tpl := Template{
		Sections: SectionList{
			{Key: "express", Role: RoleExpress, Fields: []Field{{Key: "express_toggle"}}},
		},
	}
	assert.Equal(t, "express_toggle", tpl.ExpressKey(), "falls back to EXPRESS section field")

	tpl.ExpressFieldKey = "rush"
	assert.Equal(t, "rush", tpl.ExpressKey(), "explicit key wins")

	assert.Empty(t, (&Template{}).ExpressKey())
}

func TestFieldTypeClassification(t *testing.T) {
	assert.True(t, FieldNumber.IsNumeric())
	assert.True(t, FieldExtras.IsNumeric())
	assert.False(t, FieldText.IsNumeric())
	assert.False(t, FieldFile.IsNumeric())

	assert.True(t, FieldSelect.IsOptionBased())
	assert.False(t, FieldNumber.IsOptionBased())

	assert.True(t, FieldExtras.IsMultiSelect())
	assert.False(t, FieldSelect.IsMultiSelect())
}

func TestSectionListScanRoundTrip(t *testing.T) {
	original := SectionList{
		{Key: "size", Layout: LayoutGrid, Fields: []Field{
			{Key: "width_cm", Type: FieldNumber, Required: true, UseInFormula: true},
		}},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var decoded SectionList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, original, decoded)

	var fromNil SectionList
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)
}
