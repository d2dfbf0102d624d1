package pricing

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Limits bounds formula size and nesting to keep parse cost predictable for
// hostile template input. Formulas are shop-authored and cross a trust
// boundary, so evaluation is a dedicated recursive-descent parser over
// float64 only. No scripting engine is ever invoked.
type Limits struct {
	MaxFormulaLength int
	MaxTokens        int
	MaxDepth         int
}

// DefaultLimits are safe defaults for real-world pricing formulas.
var DefaultLimits = Limits{
	MaxFormulaLength: 2000,
	MaxTokens:        500,
	MaxDepth:         32,
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// mathFunc describes an allow-listed formula function. Variadic functions
// have maxArity -1.
type mathFunc struct {
	minArity int
	maxArity int
	apply    func(args []float64) float64
}

var formulaFuncs = map[string]mathFunc{
	"floor": {1, 1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"ceil":  {1, 1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"round": {1, 1, func(a []float64) float64 { return math.Round(a[0]) }},
	"abs":   {1, 1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"sqrt":  {1, 1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"pow":   {2, 2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"min": {1, -1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {1, -1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func tokenize(formula string, limits Limits) ([]token, *Error) {
	if strings.TrimSpace(formula) == "" {
		return nil, syntaxErr("formula is empty")
	}
	if len(formula) > limits.MaxFormulaLength {
		return nil, syntaxErr("formula exceeds %d characters", limits.MaxFormulaLength)
	}

	var tokens []token
	i := 0
	for i < len(formula) {
		c := formula[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == '+':
			tokens = append(tokens, token{kind: tokPlus, pos: i})
			i++
		case c == '-':
			tokens = append(tokens, token{kind: tokMinus, pos: i})
			i++
		case c == '*':
			tokens = append(tokens, token{kind: tokStar, pos: i})
			i++
		case c == '/':
			tokens = append(tokens, token{kind: tokSlash, pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma, pos: i})
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			seenDot := false
			for i < len(formula) && (formula[i] >= '0' && formula[i] <= '9' || formula[i] == '.') {
				if formula[i] == '.' {
					if seenDot {
						return nil, syntaxErr("invalid number at position %d", start)
					}
					seenDot = true
				}
				i++
			}
			text := formula[start:i]
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, syntaxErr("invalid number %q at position %d", text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: n, pos: start})
		case isIdentStart(c):
			start := i
			for i < len(formula) && isIdentPart(formula[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: formula[start:i], pos: start})
		default:
			return nil, syntaxErr("unexpected character %q at position %d", string(c), i)
		}
		if len(tokens) > limits.MaxTokens {
			return nil, syntaxErr("formula exceeds %d tokens", limits.MaxTokens)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(formula)})
	return tokens, nil
}

// parser evaluates the token stream directly. In static mode every identifier
// resolves to zero and is recorded instead of looked up, and non-finite
// intermediate results are not treated as errors; this mode backs the
// validator's free-variable extraction.
type parser struct {
	tokens []token
	pos    int
	depth  int
	limits Limits
	vars   map[string]float64
	static bool
	seen   map[string]struct{}
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) enter() *Error {
	p.depth++
	if p.depth > p.limits.MaxDepth {
		return syntaxErr("formula nesting exceeds depth %d", p.limits.MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// parseExpr handles addition and subtraction.
func (p *parser) parseExpr() (float64, *Error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case tokMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseTerm handles multiplication and division.
func (p *parser) parseTerm() (float64, *Error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case tokSlash:
			t := p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left /= right
			if !p.static && !isFinite(left) {
				return 0, newError(KindDivisionByZero, "",
					"division at position %d produced a non-finite result", t.pos)
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (float64, *Error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		v, err := p.parseUnary()
		return -v, err
	case tokPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, *Error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		return p.resolveIdent(t.text)
	case tokLParen:
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if tk := p.next(); tk.kind != tokRParen {
			return 0, syntaxErr("expected ')' at position %d", tk.pos)
		}
		return v, nil
	case tokEOF:
		return 0, syntaxErr("unexpected end of formula")
	default:
		return 0, syntaxErr("unexpected token at position %d", t.pos)
	}
}

func (p *parser) parseCall(name token) (float64, *Error) {
	fn, ok := formulaFuncs[name.text]
	if !ok {
		return 0, syntaxErr("unknown function %q at position %d", name.text, name.pos)
	}
	p.next() // consume '('

	var args []float64
	if p.peek().kind != tokRParen {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if tk := p.next(); tk.kind != tokRParen {
		return 0, syntaxErr("expected ')' at position %d", tk.pos)
	}
	if len(args) < fn.minArity || (fn.maxArity >= 0 && len(args) > fn.maxArity) {
		return 0, syntaxErr("function %q called with %d arguments", name.text, len(args))
	}

	v := fn.apply(args)
	if !p.static && !isFinite(v) {
		return 0, newError(KindDivisionByZero, "",
			"function %q produced a non-finite result", name.text)
	}
	return v, nil
}

func (p *parser) resolveIdent(name string) (float64, *Error) {
	if p.static {
		p.seen[name] = struct{}{}
		return 0, nil
	}
	v, ok := p.vars[name]
	if !ok {
		return 0, unknownVariableErr(name)
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Evaluate parses and evaluates an arithmetic pricing formula against the
// given variable mapping. It is pure and deterministic: identical formula and
// variables always produce the identical IEEE-754 result.
func Evaluate(formula string, vars map[string]float64, limits Limits) (float64, *Error) {
	tokens, err := tokenize(formula, limits)
	if err != nil {
		return 0, err
	}
	p := &parser{tokens: tokens, limits: limits, vars: vars}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if tk := p.next(); tk.kind != tokEOF {
		return 0, syntaxErr("unexpected token at position %d", tk.pos)
	}
	if !isFinite(v) {
		return 0, newError(KindDivisionByZero, "", "formula produced a non-finite result")
	}
	return v, nil
}

// ExtractVariables returns the sorted set of free identifiers referenced by
// the formula without evaluating it against real data. Function names from
// the allow-list are not reported as variables.
func ExtractVariables(formula string, limits Limits) ([]string, *Error) {
	tokens, err := tokenize(formula, limits)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, limits: limits, static: true, seen: make(map[string]struct{})}
	if _, err := p.parseExpr(); err != nil {
		return nil, err
	}
	if tk := p.next(); tk.kind != tokEOF {
		return nil, syntaxErr("unexpected token at position %d", tk.pos)
	}
	vars := make([]string, 0, len(p.seen))
	for name := range p.seen {
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return vars, nil
}
