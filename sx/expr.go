// Package sx is the symbolic backend that lowered expression graphs target.
//
// Design goals:
//   - Exact rational constants (math/big.Rat), float fallback for transcendental functions
//   - Sub-expressions are shared by pointer; Eval, Subs and Diff visit each shared node once
//   - Canonicalisation is shallow: constructors assume their operands are already canonical
//   - Dense matrices of scalar expressions with explicit shape errors
//   - Functions compiled over symbolic parameters and applied by substitution
package sx

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"sync/atomic"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a scalar symbolic expression.
type Expr interface {
	Simplify() Expr
	String() string
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}

	eval(e *evaluator) (*Num, bool)
	subs(r *rewriter) Expr
	diff(d *differ) Expr
}

type evalResult struct {
	n  *Num
	ok bool
}

type evaluator struct{ memo map[Expr]evalResult }

func (e *evaluator) of(x Expr) (*Num, bool) {
	if r, ok := e.memo[x]; ok {
		return r.n, r.ok
	}
	n, ok := x.eval(e)
	e.memo[x] = evalResult{n: n, ok: ok}
	return n, ok
}

type rewriter struct {
	env  map[string]Expr
	memo map[Expr]Expr
}

func newRewriter(env map[string]Expr) *rewriter {
	return &rewriter{env: env, memo: map[Expr]Expr{}}
}

func (r *rewriter) of(x Expr) Expr {
	if v, ok := r.memo[x]; ok {
		return v
	}
	v := x.subs(r)
	r.memo[x] = v
	return v
}

func (r *rewriter) all(xs []Expr) []Expr {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = r.of(x)
	}
	return out
}

type differ struct {
	name string
	memo map[Expr]Expr
}

func newDiffer(name string) *differ { return &differ{name: name, memo: map[Expr]Expr{}} }

func (d *differ) of(x Expr) Expr {
	if v, ok := d.memo[x]; ok {
		return v
	}
	v := x.diff(d)
	d.memo[x] = v
	return v
}

// Eval folds e to a number. It fails when a free symbol remains or a
// function leaves its real domain.
func Eval(e Expr) (*Num, bool) {
	return (&evaluator{memo: map[Expr]evalResult{}}).of(e)
}

// Subs replaces every symbol named in env.
func Subs(e Expr, env map[string]Expr) Expr { return newRewriter(env).of(e) }

// Sub replaces a single symbol.
func Sub(e Expr, varName string, value Expr) Expr {
	return Subs(e, map[string]Expr{varName: value})
}

// Diff differentiates e with respect to the symbol varName.
func Diff(e Expr, varName string) Expr { return newDiffer(varName).of(e) }

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }

// ============================================================
// Num — exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("sx: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float64 exactly. It panics on NaN or infinity.
func NFloat(f float64) *Num {
	n, ok := floatNum(f)
	if !ok {
		panic(fmt.Sprintf("sx: %v is not a finite number", f))
	}
	return n
}

// Finite converts f exactly, or returns a *NonFiniteError for NaN and
// infinity.
func Finite(f float64) (*Num, error) {
	n, ok := floatNum(f)
	if !ok {
		return nil, &NonFiniteError{Value: f}
	}
	return n, nil
}

func floatNum(f float64) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFloat64(f)}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }

func (n *Num) eval(*evaluator) (*Num, bool) { return n, true }
func (n *Num) subs(*rewriter) Expr          { return n }
func (n *Num) diff(*differ) Expr            { return N(0) }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	if n.val.Denom().BitLen() > 32 {
		return fmt.Sprintf("%g", n.Float64())
	}
	return n.val.RatString()
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("sx: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}
func numCmp(a, b *Num) int { return a.val.Cmp(b.val) }

// ============================================================
// Sym — symbolic placeholder
// ============================================================

type Sym struct{ name string }

var freshCounter atomic.Uint64

func S(name string) *Sym { return &Sym{name: name} }

// Fresh returns a symbol whose name no other call to Fresh returns.
func Fresh(prefix string) *Sym {
	return S(fmt.Sprintf("%s#%d", prefix, freshCounter.Add(1)))
}

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

func (s *Sym) eval(*evaluator) (*Num, bool) { return nil, false }

func (s *Sym) subs(r *rewriter) Expr {
	if v, ok := r.env[s.name]; ok {
		return v
	}
	return s
}

func (s *Sym) diff(d *differ) Expr {
	if s.name == d.name {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Subtract returns a - b.
func Subtract(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		if inner, ok := t.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, t)
		}
	}
	numAccum := N(0)
	symCoeffs := map[string]*Num{}
	symOrder := []string{}
	others := []Expr{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum = numAdd(numAccum, v)
		case *Sym:
			if _, seen := symCoeffs[v.name]; !seen {
				symOrder = append(symOrder, v.name)
				symCoeffs[v.name] = N(0)
			}
			symCoeffs[v.name] = numAdd(symCoeffs[v.name], N(1))
		default:
			others = append(others, t)
		}
	}
	result := []Expr{}
	sort.Strings(symOrder)
	for _, name := range symOrder {
		coeff := symCoeffs[name]
		if coeff.IsOne() {
			result = append(result, S(name))
		} else {
			result = append(result, MulOf(coeff, S(name)))
		}
	}
	result = append(result, others...)
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) eval(e *evaluator) (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := e.of(t)
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) subs(r *rewriter) Expr { return AddOf(r.all(a.terms)...) }

func (a *Add) diff(d *differ) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = d.of(t)
	}
	return AddOf(dTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": jsonAll(a.terms)}
}
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

// MulOf multiplies factors. Non-numeric factors keep their construction
// order, so equal inputs built in the same order compare Equal.
func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Divide returns a / b.
func Divide(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// Negate returns -a.
func Negate(a Expr) Expr { return MulOf(N(-1), a) }

func (m *Mul) Simplify() Expr {
	coeff := N(1)
	others := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		if inner, ok := f.(*Mul); ok {
			for _, g := range inner.factors {
				if v, ok := g.(*Num); ok {
					coeff = numMul(coeff, v)
				} else {
					others = append(others, g)
				}
			}
			continue
		}
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
		} else {
			others = append(others, f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) eval(e *evaluator) (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := e.of(f)
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) subs(r *rewriter) Expr { return MulOf(r.all(m.factors)...) }

func (m *Mul) diff(d *differ) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := d.of(fi)
		if n, ok := dfi.(*Num); ok && n.IsZero() {
			terms[i] = dfi
			continue
		}
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": jsonAll(m.factors)}
}
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base, exp := p.base, p.exp

	if en, ok := exp.(*Num); ok && en.IsZero() {
		return N(1)
	}
	if en, ok := exp.(*Num); ok && en.IsOne() {
		return base
	}

	// 0^0 is indeterminate; 0^negative is division by zero.
	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 && (en.IsZero() || en.IsNegative()) {
			return &Pow{base: base, exp: exp}
		}
		if _, ok2 := exp.(*Num); ok2 {
			return N(0)
		}
	}

	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() && en.val.Num().IsInt64() {
			e := en.val.Num().Int64()
			if e >= -20 && e <= 20 {
				result := N(1)
				for i := int64(0); i < abs64(e); i++ {
					result = numMul(result, bn)
				}
				if e < 0 {
					return numRecip(result)
				}
				return result
			}
		}
	}
	// (b^u)^n folds only for integer n; (x^2)^(1/2) is |x|, not x.
	if inner, ok := base.(*Pow); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			return PowOf(inner.base, MulOf(inner.exp, en))
		}
	}
	return &Pow{base: base, exp: exp}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	if _, ok := p.exp.(*Num); !ok {
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) eval(e *evaluator) (*Num, bool) {
	b, ok1 := e.of(p.base)
	x, ok2 := e.of(p.exp)
	if !ok1 || !ok2 {
		return nil, false
	}
	if v, ok := PowOf(b, x).(*Num); ok {
		return v, true
	}
	return floatNum(math.Pow(b.Float64(), x.Float64()))
}

func (p *Pow) subs(r *rewriter) Expr { return PowOf(r.of(p.base), r.of(p.exp)) }

func (p *Pow) diff(d *differ) Expr {
	du := d.of(p.base)
	dv := d.of(p.exp)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(p, LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(p, AddOf(logTerm, divTerm))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func jsonAll(xs []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x.toJSON()
	}
	return out
}
