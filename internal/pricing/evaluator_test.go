package pricing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		vars    map[string]float64
		want    float64
	}{
		{"literal", "42", nil, 42},
		{"decimal literal", "2.5 + 0.5", nil, 3},
		{"precedence", "2 + 3 * 4", nil, 14},
		{"parentheses", "(2 + 3) * 4", nil, 20},
		{"nested parens", "((1 + 2) * (3 + 4))", nil, 21},
		{"unary minus", "-5 + 10", nil, 5},
		{"double unary", "--5", nil, 5},
		{"division", "10 / 4", nil, 2.5},
		{"variables", "a * b + c", map[string]float64{"a": 2, "b": 3, "c": 4}, 10},
		{"area formula", "width_cm * height_cm / 10000 * unit_m2_price",
			map[string]float64{"width_cm": 100, "height_cm": 50, "unit_m2_price": 1500}, 750},
		{"floor", "floor(7.9)", nil, 7},
		{"ceil", "ceil(7.1)", nil, 8},
		{"round", "round(7.5)", nil, 8},
		{"abs", "abs(-3)", nil, 3},
		{"sqrt", "sqrt(16)", nil, 4},
		{"pow", "pow(2, 10)", nil, 1024},
		{"min two args", "min(3, 7)", nil, 3},
		{"max variadic", "max(1, 9, 4)", nil, 9},
		{"function of expression", "ceil(a / 3) * 10", map[string]float64{"a": 7}, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.formula, tt.vars, DefaultLimits)
			assert.Nil(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_UnknownVariable(t *testing.T) {
	_, err := Evaluate("foo * 2", map[string]float64{"bar": 1}, DefaultLimits)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindUnknownVariable, err.Kind)
		assert.Equal(t, "foo", err.Field)
	}
}

func TestEvaluate_SyntaxErrors(t *testing.T) {
	formulas := []string{
		"",
		"   ",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		"1 ** 2",
		"1 & 2",
		"1.2.3",
		"unknownfn(1)",
		"min()",
		"pow(1)",
		"pow(1, 2, 3)",
		"1 2",
	}
	for _, f := range formulas {
		_, err := Evaluate(f, nil, DefaultLimits)
		if assert.NotNil(t, err, "formula %q", f) {
			assert.Equal(t, KindSyntaxError, err.Kind, "formula %q", f)
		}
	}
}

func TestEvaluate_NonFinite(t *testing.T) {
	for _, f := range []string{"1 / 0", "0 / 0", "x / y", "sqrt(-1)", "pow(10, 400)"} {
		_, err := Evaluate(f, map[string]float64{"x": 1, "y": 0}, DefaultLimits)
		if assert.NotNil(t, err, "formula %q", f) {
			assert.Equal(t, KindDivisionByZero, err.Kind, "formula %q", f)
		}
	}
}

func TestEvaluate_Limits(t *testing.T) {
	long := strings.Repeat("1+", 2000) + "1"
	_, err := Evaluate(long, nil, DefaultLimits)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindSyntaxError, err.Kind)
	}

	deep := strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40)
	_, err = Evaluate(deep, nil, DefaultLimits)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindSyntaxError, err.Kind)
	}

	// Within limits still works.
	ok := strings.Repeat("(", 10) + "1" + strings.Repeat(")", 10)
	got, err2 := Evaluate(ok, nil, DefaultLimits)
	assert.Nil(t, err2)
	assert.Equal(t, 1.0, got)
}

func TestEvaluate_Deterministic(t *testing.T) {
	vars := map[string]float64{"w": 33.3, "h": 66.6, "p": 1234.56}
	first, err := Evaluate("w * h / 10000 * p + sqrt(w)", vars, DefaultLimits)
	assert.Nil(t, err)
	for i := 0; i < 100; i++ {
		again, err := Evaluate("w * h / 10000 * p + sqrt(w)", vars, DefaultLimits)
		assert.Nil(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractVariables(t *testing.T) {
	vars, err := ExtractVariables("width_cm * height_cm / 10000 * unit_m2_price + floor(qty)", DefaultLimits)
	assert.Nil(t, err)
	assert.Equal(t, []string{"height_cm", "qty", "unit_m2_price", "width_cm"}, vars)

	// Function names are not variables.
	vars, err = ExtractVariables("min(a, b)", DefaultLimits)
	assert.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, vars)

	// Static analysis does not choke on divisions.
	vars, err = ExtractVariables("a / b", DefaultLimits)
	assert.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, vars)

	_, err = ExtractVariables("(a +", DefaultLimits)
	if assert.NotNil(t, err) {
		assert.Equal(t, KindSyntaxError, err.Kind)
	}
}
