package sx_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/symlower/sx"
)

func evaluate(t *testing.T, m *sx.Matrix) []float64 {
	t.Helper()
	values, err := m.Evaluate()
	if err != nil {
		t.Fatalf("evaluate %s: %v", m, err)
	}
	return values
}

func sameValues(want, got []float64) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			return false
		}
	}
	return true
}

// ============================================================
// Construction
// ============================================================

func TestMatrix_String(t *testing.T) {
	if got := sx.MatSym("y", 2, 1).String(); got != "[[y_0], [y_1]]" {
		t.Errorf("want [[y_0], [y_1]], got %s", got)
	}
	if got := sx.MatSym("t", 1, 1).String(); got != "t" {
		t.Errorf("want t, got %s", got)
	}
	if got := sx.FromFloats(2, 2, []float64{1, 0.5, 3, 4}).String(); got != "[[1, 1/2], [3, 4]]" {
		t.Errorf("want [[1, 1/2], [3, 4]], got %s", got)
	}
}

func TestMatrix_EvaluateReportsEntry(t *testing.T) {
	_, err := sx.Column(sx.N(1), sx.S("x")).Evaluate()
	var evalErr *sx.EvalError
	if !errors.As(err, &evalErr) || evalErr.Index != 1 || evalErr.Expr != "x" {
		t.Errorf("want EvalError at entry 1, got %v", err)
	}
}

// ============================================================
// Elementwise
// ============================================================

func TestElementwise_Broadcasts(t *testing.T) {
	v := sx.FromFloats(3, 1, []float64{1, 2, 3})
	got, err := sx.Times(v, sx.Scalar(sx.N(2)))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{2, 4, 6}; !sameValues(want, evaluate(t, got)) {
		t.Errorf("want %v, got %s", want, got)
	}
	got, err = sx.Minus(sx.Scalar(sx.N(10)), v)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{9, 8, 7}; !sameValues(want, evaluate(t, got)) {
		t.Errorf("want %v, got %s", want, got)
	}
}

func TestElementwise_ShapeMismatch(t *testing.T) {
	_, err := sx.Plus(sx.FromFloats(2, 1, []float64{1, 2}), sx.FromFloats(3, 1, []float64{1, 2, 3}))
	var shape *sx.ShapeMismatchError
	if !errors.As(err, &shape) {
		t.Fatalf("want ShapeMismatchError, got %v", err)
	}
	if shape.Op != "plus" || shape.Left != (sx.Shape{Rows: 2, Cols: 1}) || shape.Right != (sx.Shape{Rows: 3, Cols: 1}) {
		t.Errorf("unexpected error %v", shape)
	}
}

func TestCompareAndExtrema(t *testing.T) {
	a := sx.FromFloats(3, 1, []float64{1, 5, 3})
	b := sx.Scalar(sx.N(3))
	cmp, err := sx.Compare(sx.Ge, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0, 1, 1}; !sameValues(want, evaluate(t, cmp)) {
		t.Errorf("want %v, got %s", want, cmp)
	}
	lo, err := sx.Fmin(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 3, 3}; !sameValues(want, evaluate(t, lo)) {
		t.Errorf("want %v, got %s", want, lo)
	}
	hi, err := sx.Mmax(a, sx.Scalar(sx.N(4)))
	if err != nil {
		t.Fatal(err)
	}
	if got := hi.String(); got != "5" {
		t.Errorf("want 5, got %s", got)
	}
	if _, err := sx.Mmin(sx.NewMatrix(0, 0)); err == nil {
		t.Error("mmin of an empty matrix should fail")
	}
}

// ============================================================
// Structural
// ============================================================

func TestMatMul(t *testing.T) {
	a := sx.FromFloats(2, 2, []float64{1, 2, 3, 4})
	got, err := sx.MatMul(a, sx.FromFloats(2, 1, []float64{1, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{3, 7}; !sameValues(want, evaluate(t, got)) {
		t.Errorf("want %v, got %s", want, got)
	}
	if _, err := sx.MatMul(a, sx.FromFloats(3, 1, []float64{1, 1, 1})); err == nil {
		t.Error("2x2 by 3x1 should fail")
	}
}

func TestTransposeAndKron(t *testing.T) {
	a := sx.FromFloats(2, 3, []float64{1, 2, 3, 4, 5, 6})
	tr := sx.Transpose(a)
	if tr.Rows() != 3 || tr.Cols() != 2 {
		t.Fatalf("want 3x2, got %s", tr.Shape())
	}
	if want := []float64{1, 4, 2, 5, 3, 6}; !sameValues(want, evaluate(t, tr)) {
		t.Errorf("want %v, got %s", want, tr)
	}
	k := sx.Kron(sx.FromFloats(2, 1, []float64{1, 2}), sx.FromFloats(1, 2, []float64{3, 4}))
	if want := []float64{3, 4, 6, 8}; k.Rows() != 2 || !sameValues(want, evaluate(t, k)) {
		t.Errorf("want %v, got %s", want, k)
	}
}

func TestVertcatAndSlice(t *testing.T) {
	v, err := sx.Vertcat(sx.FromFloats(1, 1, []float64{1}), sx.NewMatrix(0, 0), sx.FromFloats(2, 1, []float64{2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 2, 3}; !sameValues(want, evaluate(t, v)) {
		t.Errorf("want %v, got %s", want, v)
	}
	s, err := v.Slice(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{2, 3}; !sameValues(want, evaluate(t, s)) {
		t.Errorf("want %v, got %s", want, s)
	}

	_, err = v.Slice(2, 4)
	var rangeErr *sx.RangeError
	if !errors.As(err, &rangeErr) || rangeErr.Len != 3 {
		t.Errorf("want RangeError, got %v", err)
	}
	if _, err := sx.Vertcat(sx.FromFloats(1, 2, []float64{1, 2}), sx.FromFloats(1, 1, []float64{1})); err == nil {
		t.Error("vertcat of 1x2 and 1x1 should fail")
	}
}

func TestSum(t *testing.T) {
	x := sx.S("x")
	got := sx.Sum(sx.Column(x, x, sx.N(1)))
	if got.String() != "2*x + 1" {
		t.Errorf("want 2*x + 1, got %s", got)
	}
}

// ============================================================
// Derivatives
// ============================================================

func TestJacobian(t *testing.T) {
	x, y := sx.S("x"), sx.S("y")
	f := sx.Column(sx.MulOf(x, y), sx.AddOf(x, y))
	j, err := sx.Jacobian(f, sx.Column(x, y))
	if err != nil {
		t.Fatal(err)
	}
	if got := j.String(); got != "[[y, x], [1, 1]]" {
		t.Errorf("want [[y, x], [1, 1]], got %s", got)
	}
	if _, err := sx.Jacobian(f, sx.Column(sx.N(1))); err == nil {
		t.Error("jacobian with respect to a number should fail")
	}
}

func TestGradient(t *testing.T) {
	x, y := sx.S("x"), sx.S("y")
	g, err := sx.Gradient(sx.Scalar(sx.AddOf(x, sx.PowOf(y, sx.N(3)))), sx.Column(x, y))
	if err != nil {
		t.Fatal(err)
	}
	if got := g.String(); got != "[[1], [3*y^2]]" {
		t.Errorf("want [[1], [3*y^2]], got %s", got)
	}
	_, err = sx.Gradient(sx.Column(x, y), sx.Column(x))
	var shape *sx.ShapeMismatchError
	if !errors.As(err, &shape) || shape.Op != "gradient" {
		t.Errorf("want gradient shape error, got %v", err)
	}
}

func TestMatrix_SubsSharesEntries(t *testing.T) {
	x := sx.S("x")
	shared := sx.SinOf(x)
	m := sx.Column(shared, sx.MulOf(sx.N(2), shared)).Subs(map[string]sx.Expr{"x": sx.N(0)})
	if got := m.String(); got != "[[0], [0]]" {
		t.Errorf("want [[0], [0]], got %s", got)
	}
}

// ============================================================
// Function
// ============================================================

func cubeFunction(t *testing.T) *sx.Function {
	t.Helper()
	x, y := sx.S("x"), sx.S("y")
	f, err := sx.NewFunction("f", []*sx.Matrix{sx.Scalar(x), sx.Scalar(y)}, sx.Scalar(sx.AddOf(x, sx.PowOf(y, sx.N(3)))))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFunction_CallDirect(t *testing.T) {
	f := cubeFunction(t)
	if got := f.String(); got != "f:(2)->1x1" {
		t.Errorf("want f:(2)->1x1, got %s", got)
	}
	out, err := f.Call(sx.Scalar(sx.N(1)), sx.Scalar(sx.N(2)))
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "9" {
		t.Errorf("want 9, got %s", out)
	}
}

func TestFunction_CallMapsElementwise(t *testing.T) {
	f := cubeFunction(t)
	out, err := f.Call(sx.Scalar(sx.N(0)), sx.FromFloats(2, 1, []float64{1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 8}; !sameValues(want, evaluate(t, out)) {
		t.Errorf("want %v, got %s", want, out)
	}
	_, err = f.Call(sx.FromFloats(2, 1, []float64{1, 2}), sx.FromFloats(3, 1, []float64{1, 2, 3}))
	var shape *sx.ShapeMismatchError
	if !errors.As(err, &shape) {
		t.Errorf("want ShapeMismatchError, got %v", err)
	}
	if _, err := f.Call(sx.Scalar(sx.N(0))); err == nil {
		t.Error("call with one argument should fail")
	}
}

func TestFunction_RejectsBadParameters(t *testing.T) {
	x := sx.S("x")
	if _, err := sx.NewFunction("g", []*sx.Matrix{sx.Scalar(x), sx.Scalar(x)}, sx.Scalar(x)); err == nil {
		t.Error("repeated parameter symbol should fail")
	}
	if _, err := sx.NewFunction("g", []*sx.Matrix{sx.Scalar(sx.N(1))}, sx.Scalar(x)); err == nil {
		t.Error("numeric parameter should fail")
	}
}

// ============================================================
// Lookup tables
// ============================================================

func squareTable(t *testing.T) *sx.Table {
	t.Helper()
	tab, err := sx.NewTable("sq", sx.CubicSpline, []float64{0, 1, 2, 3, 4}, []float64{0, 1, 4, 9, 16})
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestTable_At(t *testing.T) {
	tab := squareTable(t)
	if v, ok := tab.At(1.5, 0); !ok || math.Abs(v-2.25) > 1e-9 {
		t.Errorf("want 2.25, got %v", v)
	}
	if v, ok := tab.At(1.5, 1); !ok || math.Abs(v-3) > 1e-9 {
		t.Errorf("want 3, got %v", v)
	}
	if _, ok := tab.At(1.5, 2); ok {
		t.Error("second derivative should not evaluate")
	}
}

func TestTable_Errors(t *testing.T) {
	if _, err := sx.NewTable("bad", sx.Pchip, []float64{0, 1, 2}, []float64{0, 1}); err == nil {
		t.Error("mismatched samples should fail")
	}
	if _, err := sx.NewTable("bad", sx.Method(9), []float64{0, 1, 2}, []float64{0, 1, 2}); err == nil {
		t.Error("unknown method should fail")
	}
}

func TestLookup(t *testing.T) {
	tab := squareTable(t)
	x := sx.S("x")
	l := sx.LookupOf(tab, x)
	if got := sx.String(l); got != "sq(x)" {
		t.Errorf("want sq(x), got %s", got)
	}
	d := sx.Diff(l, "x")
	if got := sx.String(d); got != "sq'(x)" {
		t.Errorf("want sq'(x), got %s", got)
	}
	n, ok := sx.Eval(sx.Sub(d, "x", sx.NFloat(1.5)))
	if !ok || math.Abs(n.Float64()-3) > 1e-9 {
		t.Errorf("want 3, got %v", n)
	}
	if _, ok := sx.Eval(sx.Sub(sx.Diff(d, "x"), "x", sx.N(1))); ok {
		t.Error("second derivative of a lookup should not evaluate")
	}
	if _, ok := sx.LookupOf(tab, sx.N(2)).(*sx.Num); !ok {
		t.Error("lookup at a number should fold")
	}
}

func TestToJSON(t *testing.T) {
	got, err := sx.ToJSON(sx.Column(sx.N(1), sx.S("x")))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"cols":1,"entries":[{"type":"num","value":"1"},{"name":"x","type":"sym"}],"rows":2}`
	if got != want {
		t.Errorf("want %s, got %s", want, got)
	}
}
