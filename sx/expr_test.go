package sx_test

import (
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/symlower/sx"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := sx.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	if got := sx.F(2, 4).String(); got != "1/2" {
		t.Errorf("want 1/2, got %s", got)
	}
}

func TestNum_FromFloatIsExact(t *testing.T) {
	if got := sx.NFloat(0.375).String(); got != "3/8" {
		t.Errorf("want 3/8, got %s", got)
	}
	if got := sx.NFloat(-2).String(); got != "-2" {
		t.Errorf("want -2, got %s", got)
	}
}

func TestNum_FromFloatPanicsOnNaN(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NFloat(NaN) should panic")
		}
	}()
	sx.NFloat(math.NaN())
}

func TestNum_Predicates(t *testing.T) {
	if !sx.N(0).IsZero() || !sx.N(1).IsOne() || !sx.N(-1).IsNegOne() {
		t.Error("zero, one and minus one predicates disagree")
	}
	if sx.F(1, 2).IsInteger() || !sx.F(-1, 2).IsNegative() {
		t.Error("integer or sign predicates disagree")
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_String(t *testing.T) {
	x := sx.S("x")
	if x.String() != "x" {
		t.Errorf("want x, got %s", x.String())
	}
}

func TestSym_FreshIsUnique(t *testing.T) {
	a, b := sx.Fresh("f"), sx.Fresh("f")
	if a.Equal(b) {
		t.Errorf("fresh symbols collide: %s", a)
	}
	if !strings.HasPrefix(a.Name(), "f#") {
		t.Errorf("want prefix f#, got %s", a.Name())
	}
}

// ============================================================
// Canonical form
// ============================================================

func TestAdd_CombinesLikeSymbols(t *testing.T) {
	x := sx.S("x")
	got := sx.String(sx.AddOf(x, x, x, sx.N(2)))
	if got != "3*x + 2" {
		t.Errorf("want 3*x + 2, got %s", got)
	}
}

func TestAdd_SortsSymbols(t *testing.T) {
	got := sx.String(sx.AddOf(sx.S("y"), sx.S("x")))
	if got != "x + y" {
		t.Errorf("want x + y, got %s", got)
	}
}

func TestMul_FoldsCoefficients(t *testing.T) {
	x := sx.S("x")
	if got := sx.String(sx.MulOf(sx.N(2), x, sx.N(3))); got != "6*x" {
		t.Errorf("want 6*x, got %s", got)
	}
	if got := sx.String(sx.MulOf(sx.N(0), x)); got != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestPow_Folds(t *testing.T) {
	x := sx.S("x")
	cases := []struct {
		expr sx.Expr
		want string
	}{
		{sx.PowOf(sx.N(2), sx.N(10)), "1024"},
		{sx.PowOf(sx.N(2), sx.N(-2)), "1/4"},
		{sx.PowOf(x, sx.N(1)), "x"},
		{sx.PowOf(x, sx.N(0)), "1"},
		{sx.PowOf(sx.PowOf(x, sx.N(2)), sx.N(3)), "x^6"},
		{sx.SqrtOf(x), "x^1/2"},
	}
	for _, tc := range cases {
		if got := sx.String(tc.expr); got != tc.want {
			t.Errorf("want %s, got %s", tc.want, got)
		}
	}
}

func TestFunc_FoldsNumbers(t *testing.T) {
	if got := sx.String(sx.SinOf(sx.N(0))); got != "0" {
		t.Errorf("want 0, got %s", got)
	}
	if got := sx.String(sx.AbsOf(sx.N(-3))); got != "3" {
		t.Errorf("want 3, got %s", got)
	}
	x := sx.S("x")
	if got := sx.String(sx.LnOf(sx.ExpOf(x))); got != "x" {
		t.Errorf("want x, got %s", got)
	}
}

// ============================================================
// Eval / Subs
// ============================================================

func TestEval_Rational(t *testing.T) {
	n, ok := sx.Eval(sx.AddOf(sx.F(1, 3), sx.F(1, 6)))
	if !ok || n.String() != "1/2" {
		t.Errorf("want 1/2, got %v (ok=%v)", n, ok)
	}
}

func TestEval_FailsOnFreeSymbol(t *testing.T) {
	if _, ok := sx.Eval(sx.AddOf(sx.S("x"), sx.N(1))); ok {
		t.Error("eval of x + 1 should fail")
	}
}

func TestEval_FailsOutsideRealDomain(t *testing.T) {
	if _, ok := sx.Eval(sx.LnOf(sx.N(-1))); ok {
		t.Error("eval of ln(-1) should fail")
	}
}

func TestEval_Transcendental(t *testing.T) {
	n, ok := sx.Eval(sx.CosOf(sx.Divide(sx.S("x"), sx.N(2))))
	if ok {
		t.Fatalf("free symbol should not evaluate, got %s", n)
	}
	e := sx.Sub(sx.CosOf(sx.Divide(sx.S("x"), sx.N(2))), "x", sx.NFloat(1))
	n, ok = sx.Eval(e)
	if !ok || math.Abs(n.Float64()-math.Cos(0.5)) > 1e-15 {
		t.Errorf("want cos(0.5), got %v", n)
	}
}

func TestSubs(t *testing.T) {
	got := sx.String(sx.Sub(sx.AddOf(sx.S("x"), sx.S("y")), "x", sx.N(2)))
	if got != "y + 2" {
		t.Errorf("want y + 2, got %s", got)
	}
}

func TestCmp(t *testing.T) {
	x := sx.S("x")
	if got := sx.String(sx.CmpOf(sx.Lt, sx.N(1), sx.N(2))); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
	c := sx.CmpOf(sx.Lt, x, sx.N(2))
	if got := sx.String(c); got != "(x < 2)" {
		t.Errorf("want (x < 2), got %s", got)
	}
	if got := sx.String(sx.Sub(c, "x", sx.N(3))); got != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestExtremum(t *testing.T) {
	x := sx.S("x")
	if got := sx.String(sx.MinOf(sx.N(3), sx.N(2))); got != "2" {
		t.Errorf("want 2, got %s", got)
	}
	if got := sx.String(sx.MaxOf(x, x)); got != "x" {
		t.Errorf("want x, got %s", got)
	}
	if got := sx.String(sx.MaxOf(x, sx.N(0))); got != "max(x, 0)" {
		t.Errorf("want max(x, 0), got %s", got)
	}
}

// ============================================================
// Diff
// ============================================================

func TestDiff(t *testing.T) {
	x := sx.S("x")
	cases := []struct {
		name string
		expr sx.Expr
		want string
	}{
		{"power", sx.PowOf(x, sx.N(3)), "3*x^2"},
		{"sin", sx.SinOf(x), "cos(x)"},
		{"chain", sx.ExpOf(sx.MulOf(sx.N(2), x)), "2*exp(2*x)"},
		{"constant", sx.N(5), "0"},
		{"other symbol", sx.S("y"), "0"},
		{"floor", sx.FloorOf(x), "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sx.String(sx.Diff(tc.expr, "x")); got != tc.want {
				t.Errorf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDiff_ExtremumFollowsSelectedOperand(t *testing.T) {
	x := sx.S("x")
	d := sx.Diff(sx.MaxOf(x, sx.N(0)), "x")
	for _, tc := range []struct {
		at   int64
		want string
	}{{2, "1"}, {-2, "0"}} {
		if got := sx.String(sx.Sub(d, "x", sx.N(tc.at))); got != tc.want {
			t.Errorf("at %d: want %s, got %s", tc.at, tc.want, got)
		}
	}
}

func TestDiff_ProductRule(t *testing.T) {
	x := sx.S("x")
	d := sx.Diff(sx.MulOf(x, sx.SinOf(x)), "x")
	n, ok := sx.Eval(sx.Sub(d, "x", sx.NFloat(1)))
	want := math.Sin(1) + math.Cos(1)
	if !ok || math.Abs(n.Float64()-want) > 1e-12 {
		t.Errorf("want %v, got %v", want, n)
	}
}

// ============================================================
// JSON
// ============================================================

func TestExprJSON(t *testing.T) {
	got, err := sx.ExprJSON(sx.AddOf(sx.S("x"), sx.N(1)))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"terms":[{"name":"x","type":"sym"},{"type":"num","value":"1"}],"type":"add"}`
	if got != want {
		t.Errorf("want %s, got %s", want, got)
	}
}
