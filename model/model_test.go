package model_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symlower"
	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/model"
)

func parse(t *testing.T, src string) *model.Model {
	t.Helper()
	m, err := model.Parse(context.Background(), "test.hcl", []byte(src))
	require.NoError(t, err)
	return m
}

func evalOutput(t *testing.T, m *model.Model, name string, tm float64, y []float64, inputs map[string]float64) []float64 {
	t.Helper()
	n, ok := m.Output(name)
	require.True(t, ok, "missing output %s", name)
	got, err := symlower.Evaluate(n, tm, y, inputs)
	require.NoError(t, err)
	return got
}

func assertClose(t *testing.T, want, got []float64) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func diagnostic(t *testing.T, err error) *hcl.Diagnostic {
	t.Helper()
	var diags hcl.Diagnostics
	require.True(t, errors.As(err, &diags), "want diagnostics, got %v", err)
	require.NotEmpty(t, diags)
	return diags[0]
}

func TestLoadCell(t *testing.T) {
	m, err := model.Load(context.Background(), "testdata/cell.hcl")
	require.NoError(t, err)

	assert.Equal(t, []string{"rhs", "driven"}, m.OutputNames())
	assert.Equal(t, 3, m.StateSize)
	assert.Equal(t, []string{"current"}, m.Inputs)
	assert.Equal(t, []string{"flux"}, m.VariableNames())
	assert.Equal(t, []string{"negative electrode"}, m.States["c"].Domain())
	assert.Equal(t, []string{"testdata/cell.hcl"}, m.Files)

	y := []float64{1, 1, 1}
	assertClose(t, []float64{5.2, 6.2, 7.2}, evalOutput(t, m, "rhs", 0, y, nil))
	assertClose(t, []float64{-2, -4, -6}, evalOutput(t, m, "driven", 0, y, map[string]float64{"current": 2}))
}

func TestReferencesShareNodes(t *testing.T) {
	m, err := model.Load(context.Background(), "testdata/cell.hcl")
	require.NoError(t, err)

	flux := m.Variables["flux"]
	rhs, _ := m.Output("rhs")
	driven, _ := m.Output("driven")
	abs := rhs.Children()[0]
	assert.Same(t, flux, abs.Children()[0])
	assert.Same(t, flux, driven.Children()[0])

	// One state and one constant node in the whole graph.
	refs := expr.References(expr.Concat(rhs, driven))
	assert.Len(t, refs.States, 1)
	assert.True(t, refs.Time)
}

func TestLoadDirectory(t *testing.T) {
	m, err := model.Load(context.Background(), "testdata/split", "testdata/missing")
	require.NoError(t, err)
	assert.Len(t, m.Files, 2)
	assert.Equal(t, 4, m.StateSize)

	dc, ok := m.Variables["ab"].(*expr.DomainConcatenation)
	require.True(t, ok)
	assert.Equal(t, []string{"separator", "negative electrode"}, dc.Domain())
	assertClose(t, []float64{3, 4, 1, 2}, evalOutput(t, m, "swapped", 0, []float64{1, 2, 3, 4}, nil))
}

func TestLoadNothing(t *testing.T) {
	_, err := model.Load(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "no .hcl files")
}

func TestDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`variable "x" { expr = 1 }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(`domain_concat "x" {
  part {
    child  = [1]
    domain = "d"
    starts = [0]
    local  = [[0, 1]]
  }
}`), 0o644))

	_, err := model.Load(context.Background(), dir)
	assert.Equal(t, "Duplicate domain concatenation", diagnostic(t, err).Summary)
}

func TestVariablesInAnyOrder(t *testing.T) {
	m := parse(t, `
output "out" { expr = var.a }
variable "a" { expr = var.b * 2 }
variable "b" { expr = t + 1 }
`)
	assertClose(t, []float64{8}, evalOutput(t, m, "out", 3, nil, nil))
}

func TestCycle(t *testing.T) {
	_, err := model.Parse(context.Background(), "test.hcl", []byte(`
variable "a" { expr = var.b + 1 }
variable "b" { expr = sin(var.a) }
`))
	var cycle *model.CycleError
	require.True(t, errors.As(err, &cycle), err)
	assert.Equal(t, []string{"var.a", "var.b", "var.a"}, cycle.Chain)
	assert.EqualError(t, err, "model: reference cycle: var.a -> var.b -> var.a")
}

func TestFunctionCycle(t *testing.T) {
	_, err := model.Parse(context.Background(), "test.hcl", []byte(`
function "f" {
  params = ["x"]
  body   = g(x)
}
function "g" {
  params = ["x"]
  body   = f(x) + 1
}
`))
	var cycle *model.CycleError
	require.True(t, errors.As(err, &cycle), err)
	assert.Equal(t, []string{"function.f", "function.g", "function.f"}, cycle.Chain)
}

func TestUserFunctions(t *testing.T) {
	m := parse(t, `
function "f" {
  params = ["x", "y"]
  body   = x + pow(y, 3)
}
function "twice" {
  params = ["x"]
  body   = 2 * f(x, constant.one)
}
constant "one" { value = 1 }
output "value" { expr = f(1, 2) }
output "slope" { expr = grad("f", 1, 1, 2) }
output "nested" { expr = twice(t) }
output "vector" { expr = f([0, 0], [1, 2]) }
`)
	assertClose(t, []float64{9}, evalOutput(t, m, "value", 0, nil, nil))
	assertClose(t, []float64{12}, evalOutput(t, m, "slope", 0, nil, nil))
	assertClose(t, []float64{8}, evalOutput(t, m, "nested", 3, nil, nil))
	assertClose(t, []float64{1, 8}, evalOutput(t, m, "vector", 0, nil, nil))
	assert.Contains(t, m.Functions, "twice")
}

func TestFunctionWithoutDerivative(t *testing.T) {
	m := parse(t, `
function "h" {
  params     = ["x"]
  body       = x * x
  derivative = "none"
}
output "slope" { expr = grad(h, 0, 2) }
`)
	n, _ := m.Output("slope")
	_, err := symlower.Evaluate(n, 0, nil, nil)
	var unresolved *symlower.UnresolvedDerivativeError
	require.True(t, errors.As(err, &unresolved), err)
	assert.Equal(t, "h", unresolved.Func)
}

func TestOperatorsAndCalls(t *testing.T) {
	m := parse(t, `
constant "A" { value = [[1, 2], [3, 4]] }
constant "S" {
  rows    = 2
  cols    = 2
  entries = [[0, 1, 5], [1, 0, -1]]
}
interpolant "square" {
  x      = [0, 1, 2, 3, 4]
  y      = [0, 1, 4, 9, 16]
  method = "cubic"
}
output "matmul"  { expr = matmul(constant.A, [1, 1]) }
output "sparse"  { expr = matmul(constant.S, [1, 2]) }
output "compare" { expr = [1 < 2, 2 <= 1, 3 == 3, 3 != 3, (2 > 1) * 5] }
output "reduce"  { expr = [min(3, t, 5), max(3, t, 5), sum([1, 2, 3])] }
output "pair"    { expr = [minimum(1, t), maximum(1, t)] }
output "index"   { expr = index([10, 20, 30], 1, 3) }
output "round"   { expr = [floor(t), ceil(t), sign(-t)] }
output "lookup"  { expr = [lookup(square, t), grad(square, 0, t)] }
output "outer"   { expr = outer([1, 2], [3]) }
`)
	tm := 1.5
	assertClose(t, []float64{3, 7}, evalOutput(t, m, "matmul", tm, nil, nil))
	assertClose(t, []float64{10, -1}, evalOutput(t, m, "sparse", tm, nil, nil))
	assertClose(t, []float64{1, 0, 1, 0, 5}, evalOutput(t, m, "compare", tm, nil, nil))
	assertClose(t, []float64{1.5, 5, 6}, evalOutput(t, m, "reduce", tm, nil, nil))
	assertClose(t, []float64{1, 1.5}, evalOutput(t, m, "pair", tm, nil, nil))
	assertClose(t, []float64{20, 30}, evalOutput(t, m, "index", tm, nil, nil))
	assertClose(t, []float64{1, 2, -1}, evalOutput(t, m, "round", tm, nil, nil))
	assertClose(t, []float64{2.25, 3}, evalOutput(t, m, "lookup", tm, nil, nil))
	assertClose(t, []float64{3, 6}, evalOutput(t, m, "outer", tm, nil, nil))
}

func TestDiagnostics(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		summary string
	}{
		{"unknown variable", `output "o" { expr = var.nope }`, "Unknown variable"},
		{"unknown state", `output "o" { expr = state.nope }`, "Unknown state"},
		{"undeclared input", `output "o" { expr = input.current }`, "Unknown input"},
		{"unknown function", `output "o" { expr = frobnicate(1) }`, "Unknown function"},
		{"unknown interpolant", `output "o" { expr = lookup("nope", t) }`, "Unknown interpolant"},
		{"bad reference", `output "o" { expr = time }`, "Invalid reference"},
		{"logical operator", `output "o" { expr = t > 1 && t < 2 }`, "Unsupported operator"},
		{"string", `output "o" { expr = "x" }`, "Unsupported expression"},
		{"arity", `output "o" { expr = sin(t, t) }`, "Wrong number of arguments"},
		{"grad index", `output "o" { expr = grad("sin", 1, t) }`, "Invalid argument index"},
		{"index slice", `output "o" { expr = index([1, 2], 2, 1) }`, "Invalid slice"},
		{"reserved name", "function \"sin\" {\n  params = [\"x\"]\n  body = x\n}", "Reserved function name"},
		{"state in function", "state \"c\" { slices = [[0, 1]] }\nfunction \"f\" {\n  params = [\"x\"]\n  body = x + state.c\n}", "Reference not allowed"},
		{"bad slice", `state "c" { slices = [[3, 1]] }`, "Invalid slice"},
		{"ragged constant", `constant "c" { value = [[1, 2], [3]] }`, "Ragged constant"},
		{"missing constant value", `constant "c" {}`, "Missing constant value"},
		{"interpolant method", "interpolant \"i\" {\n  x = [0, 1, 2]\n  y = [0, 1, 2]\n  method = \"linear\"\n}", "Unknown interpolation method"},
		{"interpolant samples", "interpolant \"i\" {\n  x = [0, 1]\n  y = [0, 1]\n}", "Invalid interpolant"},
		{"duplicate output", "output \"o\" { expr = 1 }\noutput \"o\" { expr = 2 }", "Duplicate output"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.Parse(context.Background(), "test.hcl", []byte(tc.src))
			d := diagnostic(t, err)
			assert.Equal(t, tc.summary, d.Summary)
			require.NotNil(t, d.Subject)
			assert.Equal(t, "test.hcl", d.Subject.Filename)
		})
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := model.Parse(context.Background(), "broken.hcl", []byte(`output "o" { expr = `))
	assert.ErrorContains(t, err, "failed to parse broken.hcl")
}
