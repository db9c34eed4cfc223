package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	"gonum.org/v1/gonum/mat"

	"github.com/njchilds90/symlower"
	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/internal/ctxlog"
	"github.com/njchilds90/symlower/sx"
)

// scope is the parameter environment of a function body.
type scope struct {
	function string
	params   map[string]*expr.Input
}

type builder struct {
	logger *slog.Logger
	time   *expr.Time

	states       map[string]*expr.StateVector
	inputs       map[string]*expr.Input
	constants    map[string]*expr.Constant
	interpolants map[string]*expr.Callable

	functionDecls map[string]*functionBlock
	functions     map[string]*expr.Callable
	variableDecls map[string]*variableBlock
	concatDecls   map[string]*domainConcatBlock
	variables     map[string]expr.Node

	// declarations being resolved, outermost first
	resolving []string
}

// reserved are call names with a fixed meaning.
var reserved = map[string]bool{
	"lookup": true, "grad": true, "index": true,
	"pow": true, "outer": true, "matmul": true, "minimum": true, "maximum": true,
	"abs": true, "sum": true, "transpose": true, "sign": true, "floor": true, "ceil": true,
}

var binaryOps = map[*hclsyntax.Operation]func(l, r expr.Node) *expr.Binary{
	hclsyntax.OpAdd:                expr.Add,
	hclsyntax.OpSubtract:           expr.Sub,
	hclsyntax.OpMultiply:           expr.Mul,
	hclsyntax.OpDivide:             expr.Div,
	hclsyntax.OpEqual:              expr.Eq,
	hclsyntax.OpNotEqual:           expr.Ne,
	hclsyntax.OpLessThan:           expr.Lt,
	hclsyntax.OpLessThanOrEqual:    expr.Le,
	hclsyntax.OpGreaterThan:        expr.Gt,
	hclsyntax.OpGreaterThanOrEqual: expr.Ge,
}

var binaryCalls = map[string]func(l, r expr.Node) *expr.Binary{
	"pow":     expr.Pow,
	"outer":   expr.Outer,
	"matmul":  expr.MatMul,
	"minimum": expr.Minimum,
	"maximum": expr.Maximum,
}

var unaryCalls = map[string]func(x expr.Node) *expr.Unary{
	"abs":       expr.Abs,
	"sum":       expr.Sum,
	"transpose": expr.Transpose,
	"sign":      expr.Sign,
	"floor":     expr.Floor,
	"ceil":      expr.Ceil,
}

func build(ctx context.Context, roots []*fileRoot) (*Model, error) {
	b := &builder{
		logger:        ctxlog.FromContext(ctx),
		time:          expr.NewTime(expr.WithName("t")),
		states:        make(map[string]*expr.StateVector),
		inputs:        make(map[string]*expr.Input),
		constants:     make(map[string]*expr.Constant),
		interpolants:  make(map[string]*expr.Callable),
		functionDecls: make(map[string]*functionBlock),
		functions:     make(map[string]*expr.Callable),
		variableDecls: make(map[string]*variableBlock),
		concatDecls:   make(map[string]*domainConcatBlock),
		variables:     make(map[string]expr.Node),
	}
	if err := b.declare(roots); err != nil {
		return nil, err
	}

	for _, name := range sortedKeys(b.functionDecls) {
		if _, err := b.function(name); err != nil {
			return nil, err
		}
	}
	names := append(sortedKeys(b.variableDecls), sortedKeys(b.concatDecls)...)
	for _, name := range names {
		if _, err := b.variable(name, hcl.Range{}); err != nil {
			return nil, err
		}
	}

	m := &Model{
		Variables:    b.variables,
		States:       b.states,
		Constants:    b.constants,
		Interpolants: b.interpolants,
		Functions:    b.functions,
		Inputs:       sortedKeys(b.inputs),
	}
	seen := make(map[string]hcl.Range)
	for _, root := range roots {
		for _, o := range root.Outputs {
			if prev, ok := seen[o.Name]; ok {
				return nil, duplicate("output", o.Name, o.DefRange, prev)
			}
			seen[o.Name] = o.DefRange
			n, err := b.convert(o.Expr, nil)
			if err != nil {
				return nil, err
			}
			m.Outputs = append(m.Outputs, Output{Name: o.Name, Node: n})
		}
	}
	for _, s := range b.states {
		for _, sl := range s.Slices() {
			m.StateSize = max(m.StateSize, sl.Stop)
		}
	}

	b.logger.Debug("model built",
		"outputs", len(m.Outputs),
		"variables", len(m.Variables),
		"functions", len(m.Functions),
		"state_size", m.StateSize,
	)
	return m, nil
}

// declare registers every block and builds the leaves, which refer to
// nothing else.
func (b *builder) declare(roots []*fileRoot) error {
	ranges := make(map[string]hcl.Range)
	claim := func(namespace, kind, name string, rng hcl.Range) error {
		key := namespace + "." + name
		if prev, ok := ranges[key]; ok {
			return duplicate(kind, name, rng, prev)
		}
		ranges[key] = rng
		return nil
	}

	for _, root := range roots {
		for _, s := range root.States {
			if err := claim("state", "state", s.Name, s.DefRange); err != nil {
				return err
			}
			n, err := stateVector(s)
			if err != nil {
				return err
			}
			b.states[s.Name] = n
		}
		for _, in := range root.Inputs {
			if err := claim("input", "input", in.Name, in.DefRange); err != nil {
				return err
			}
			b.inputs[in.Name] = expr.NewInput(in.Name)
		}
		for _, c := range root.Constants {
			if err := claim("constant", "constant", c.Name, c.DefRange); err != nil {
				return err
			}
			n, err := constant(c)
			if err != nil {
				return err
			}
			b.constants[c.Name] = n
		}
		for _, ip := range root.Interpolants {
			if err := claim("func", "interpolant", ip.Name, ip.DefRange); err != nil {
				return err
			}
			c, err := interpolant(ip)
			if err != nil {
				return err
			}
			b.interpolants[ip.Name] = c
		}
		for _, f := range root.Functions {
			if err := claim("func", "function", f.Name, f.DefRange); err != nil {
				return err
			}
			if _, builtin := expr.Named(f.Name); builtin || reserved[f.Name] {
				return diagError(f.DefRange, "Reserved function name",
					fmt.Sprintf("%q is a built-in function and cannot be redefined.", f.Name))
			}
			b.functionDecls[f.Name] = f
		}
		for _, v := range root.Variables {
			if err := claim("var", "variable", v.Name, v.DefRange); err != nil {
				return err
			}
			b.variableDecls[v.Name] = v
		}
		for _, dc := range root.DomainConcats {
			if err := claim("var", "domain concatenation", dc.Name, dc.DefRange); err != nil {
				return err
			}
			b.concatDecls[dc.Name] = dc
		}
	}
	return nil
}

func stateVector(s *stateBlock) (*expr.StateVector, error) {
	if len(s.Slices) == 0 {
		return nil, diagError(s.DefRange, "Empty state", fmt.Sprintf("State %q must cover at least one slice.", s.Name))
	}
	slices := make([]expr.Slice, len(s.Slices))
	for i, pair := range s.Slices {
		sl, err := slice(pair, s.DefRange)
		if err != nil {
			return nil, err
		}
		slices[i] = sl
	}
	opts := []expr.Option{expr.WithName(s.Name)}
	if len(s.Domain) > 0 {
		opts = append(opts, expr.InDomain(s.Domain...))
	}
	return expr.NewStateVector(slices, opts...), nil
}

func slice(pair []int, rng hcl.Range) (expr.Slice, error) {
	if len(pair) != 2 || pair[0] < 0 || pair[1] <= pair[0] {
		return expr.Slice{}, diagError(rng, "Invalid slice",
			fmt.Sprintf("A slice is [start, stop] with 0 <= start < stop, got %v.", pair))
	}
	return expr.NewSlice(pair[0], pair[1]), nil
}

func constant(c *constantBlock) (*expr.Constant, error) {
	opts := expr.WithName(c.Name)
	if c.Rows != nil || c.Cols != nil {
		if c.Rows == nil || c.Cols == nil || *c.Rows <= 0 || *c.Cols <= 0 {
			return nil, diagError(c.DefRange, "Invalid sparse constant",
				fmt.Sprintf("Constant %q needs positive rows and cols.", c.Name))
		}
		entries := make([]expr.Entry, len(c.Entries))
		for i, e := range c.Entries {
			if len(e) != 3 || e[0] != math.Trunc(e[0]) || e[1] != math.Trunc(e[1]) ||
				e[0] < 0 || e[1] < 0 || int(e[0]) >= *c.Rows || int(e[1]) >= *c.Cols {
				return nil, diagError(c.DefRange, "Invalid sparse entry",
					fmt.Sprintf("Entry %d of constant %q must be [row, col, value] inside %dx%d.", i, c.Name, *c.Rows, *c.Cols))
			}
			entries[i] = expr.Entry{Row: int(e[0]), Col: int(e[1]), Value: e[2]}
		}
		return expr.NewConstant(expr.NewSparse(*c.Rows, *c.Cols, entries), opts), nil
	}

	rng := c.Value.Range()
	v, diags := c.Value.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, diagError(c.DefRange, "Missing constant value",
			fmt.Sprintf("Constant %q needs a value or rows, cols and entries.", c.Name))
	}
	rows, err := matrixRows(v, rng)
	if err != nil {
		return nil, err
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			return nil, diagError(rng, "Ragged constant", fmt.Sprintf("Every row of constant %q must have %d columns.", c.Name, cols))
		}
		data = append(data, r...)
	}
	for _, f := range data {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, diagError(rng, "Invalid constant", fmt.Sprintf("Constant %q is not finite.", c.Name))
		}
	}
	return expr.NewConstant(mat.NewDense(len(rows), cols, data), opts), nil
}

// matrixRows reads a number, a list of numbers (one column) or a list of
// rows.
func matrixRows(v cty.Value, rng hcl.Range) ([][]float64, error) {
	if v.Type() == cty.Number {
		f, err := number(v, rng)
		if err != nil {
			return nil, err
		}
		return [][]float64{{f}}, nil
	}
	if list, err := convert.Convert(v, cty.List(cty.Number)); err == nil {
		var column []float64
		if err := gocty.FromCtyValue(list, &column); err != nil {
			return nil, diagError(rng, "Invalid constant", err.Error())
		}
		if len(column) == 0 {
			return nil, diagError(rng, "Invalid constant", "A constant needs at least one value.")
		}
		rows := make([][]float64, len(column))
		for i, f := range column {
			rows[i] = []float64{f}
		}
		return rows, nil
	}
	grid, err := convert.Convert(v, cty.List(cty.List(cty.Number)))
	if err != nil {
		return nil, diagError(rng, "Invalid constant", "A constant is a number, a list of numbers or a list of rows.")
	}
	var rows [][]float64
	if err := gocty.FromCtyValue(grid, &rows); err != nil {
		return nil, diagError(rng, "Invalid constant", err.Error())
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, diagError(rng, "Invalid constant", "A constant needs at least one value.")
	}
	return rows, nil
}

func interpolant(ip *interpolantBlock) (*expr.Callable, error) {
	method := sx.Pchip
	switch ip.Method {
	case "", "pchip":
	case "cubic", "cubic_spline":
		method = sx.CubicSpline
	default:
		return nil, diagError(ip.DefRange, "Unknown interpolation method",
			fmt.Sprintf("Interpolant %q: method must be \"pchip\" or \"cubic\", got %q.", ip.Name, ip.Method))
	}
	c, err := expr.NewInterpolant(ip.Name, method, ip.X, ip.Y)
	if err != nil {
		return nil, diagError(ip.DefRange, "Invalid interpolant", err.Error())
	}
	return c, nil
}

// enter pushes key onto the resolution stack, failing if it is already
// being resolved.
func (b *builder) enter(key string) error {
	for i, k := range b.resolving {
		if k == key {
			chain := append(append([]string(nil), b.resolving[i:]...), key)
			return &CycleError{Chain: chain}
		}
	}
	b.resolving = append(b.resolving, key)
	return nil
}

func (b *builder) leave() { b.resolving = b.resolving[:len(b.resolving)-1] }

func (b *builder) variable(name string, rng hcl.Range) (expr.Node, error) {
	if n, ok := b.variables[name]; ok {
		return n, nil
	}
	v, isVar := b.variableDecls[name]
	dc, isConcat := b.concatDecls[name]
	if !isVar && !isConcat {
		return nil, unknown("variable", name, rng)
	}
	if err := b.enter("var." + name); err != nil {
		return nil, err
	}
	defer b.leave()

	var (
		n   expr.Node
		err error
	)
	if isVar {
		n, err = b.convert(v.Expr, nil)
	} else {
		n, err = b.domainConcat(dc)
	}
	if err != nil {
		return nil, err
	}
	b.variables[name] = n
	return n, nil
}

func (b *builder) domainConcat(dc *domainConcatBlock) (expr.Node, error) {
	reps := 1
	if dc.SecondaryPoints != nil {
		reps = *dc.SecondaryPoints
	}
	if reps <= 0 || len(dc.Parts) == 0 {
		return nil, diagError(dc.DefRange, "Invalid domain concatenation",
			fmt.Sprintf("Domain concatenation %q needs parts and a positive secondary_points.", dc.Name))
	}

	var (
		children []expr.Node
		parts    [][]expr.DomainPart
		index    = make(map[expr.ID]int)
	)
	for _, p := range dc.Parts {
		if len(p.Starts) != reps || len(p.Local) != reps {
			return nil, diagError(p.DefRange, "Invalid part",
				fmt.Sprintf("Every part of %q needs %d starts and %d local slices.", dc.Name, reps, reps))
		}
		child, err := b.convert(p.Child, nil)
		if err != nil {
			return nil, err
		}
		part := expr.DomainPart{Domain: p.Domain, Reps: make([]expr.DomainSlice, reps)}
		for r := range reps {
			local, err := slice(p.Local[r], p.DefRange)
			if err != nil {
				return nil, err
			}
			part.Reps[r] = expr.DomainSlice{Start: p.Starts[r], Local: local}
		}
		i, ok := index[child.ID()]
		if !ok {
			i = len(children)
			index[child.ID()] = i
			children = append(children, child)
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], part)
	}

	n, err := expr.NewDomainConcatenation(children, parts, reps, expr.WithName(dc.Name))
	if err != nil {
		return nil, diagError(dc.DefRange, "Invalid domain concatenation", err.Error())
	}
	return n, nil
}

// function compiles a user function into an opaque callable whose rule
// lowers the body with the parameters bound as inputs.
func (b *builder) function(name string) (*expr.Callable, error) {
	if c, ok := b.functions[name]; ok {
		return c, nil
	}
	fb := b.functionDecls[name]
	if err := b.enter("function." + name); err != nil {
		return nil, err
	}
	defer b.leave()

	sc := &scope{function: name, params: make(map[string]*expr.Input, len(fb.Params))}
	params := append([]string(nil), fb.Params...)
	for _, p := range params {
		if _, dup := sc.params[p]; dup {
			return nil, diagError(fb.DefRange, "Duplicate parameter", fmt.Sprintf("Function %q declares %q twice.", name, p))
		}
		sc.params[p] = expr.NewInput(p)
	}
	body, err := b.convert(fb.Body, sc)
	if err != nil {
		return nil, err
	}

	var d expr.Derivative
	switch fb.Derivative {
	case "", "bridge":
		d = expr.BridgeDerivative
	case "none":
		d = expr.NoDerivative
	default:
		return nil, diagError(fb.DefRange, "Unknown derivative",
			fmt.Sprintf("Function %q: derivative must be \"bridge\" or \"none\", got %q.", name, fb.Derivative))
	}

	c := expr.Opaque(name, len(params), func(args []*sx.Matrix) (*sx.Matrix, error) {
		inputs := make(map[string]*sx.Matrix, len(params))
		for i, p := range params {
			inputs[p] = args[i]
		}
		return symlower.Lower(body, symlower.Bindings{Inputs: inputs})
	}, d)
	b.functions[name] = c
	return c, nil
}

// callable resolves a name usable in a call or in grad.
func (b *builder) callable(name string, rng hcl.Range) (*expr.Callable, error) {
	if _, ok := b.functionDecls[name]; ok {
		return b.function(name)
	}
	if c, ok := b.interpolants[name]; ok {
		return c, nil
	}
	if c, ok := expr.Named(name); ok {
		return c, nil
	}
	return nil, unknown("function", name, rng)
}

func (b *builder) convert(e hcl.Expression, sc *scope) (expr.Node, error) {
	se, ok := e.(hclsyntax.Expression)
	if !ok {
		return nil, diagError(e.Range(), "Unsupported expression", "Model expressions must use native HCL syntax.")
	}
	return b.node(se, sc)
}

func (b *builder) node(e hclsyntax.Expression, sc *scope) (expr.Node, error) {
	switch e := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		f, err := number(e.Val, e.Range())
		if err != nil {
			return nil, err
		}
		return expr.Scalar(f), nil

	case *hclsyntax.ParenthesesExpr:
		return b.node(e.Expression, sc)

	case *hclsyntax.ScopeTraversalExpr:
		return b.reference(e.Traversal, sc)

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, diagError(e.Range(), "Unsupported operator", "Only unary minus is allowed.")
		}
		x, err := b.node(e.Val, sc)
		if err != nil {
			return nil, err
		}
		return expr.Neg(x), nil

	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, diagError(e.Range(), "Unsupported operator", "Logical and modulo operators are not allowed.")
		}
		l, err := b.node(e.LHS, sc)
		if err != nil {
			return nil, err
		}
		r, err := b.node(e.RHS, sc)
		if err != nil {
			return nil, err
		}
		return op(l, r), nil

	case *hclsyntax.TupleConsExpr:
		if len(e.Exprs) == 0 {
			return nil, diagError(e.Range(), "Empty tuple", "A concatenation needs at least one element.")
		}
		children, err := b.nodes(e.Exprs, sc)
		if err != nil {
			return nil, err
		}
		return expr.Concat(children...), nil

	case *hclsyntax.FunctionCallExpr:
		return b.call(e, sc)
	}
	return nil, diagError(e.Range(), "Unsupported expression",
		"Model expressions are built from numbers, references, operators, tuples and calls.")
}

func (b *builder) nodes(es []hclsyntax.Expression, sc *scope) ([]expr.Node, error) {
	out := make([]expr.Node, len(es))
	for i, e := range es {
		n, err := b.node(e, sc)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (b *builder) reference(tr hcl.Traversal, sc *scope) (expr.Node, error) {
	root := tr.RootName()
	rng := tr.SourceRange()
	if len(tr) == 1 {
		if sc != nil {
			if p, ok := sc.params[root]; ok {
				return p, nil
			}
		}
		if root == "t" && sc == nil {
			return b.time, nil
		}
	}
	attr, ok := traversalAttr(tr)
	if !ok {
		return nil, diagError(rng, "Invalid reference", "References look like t, state.<name>, input.<name>, constant.<name> or var.<name>.")
	}
	if sc != nil && root != "constant" {
		return nil, diagError(rng, "Reference not allowed",
			fmt.Sprintf("Function %q can only refer to its parameters and constants.", sc.function))
	}

	switch root {
	case "state":
		if n, ok := b.states[attr]; ok {
			return n, nil
		}
		return nil, unknown("state", attr, rng)
	case "input":
		if n, ok := b.inputs[attr]; ok {
			return n, nil
		}
		return nil, unknown("input", attr, rng)
	case "constant":
		if n, ok := b.constants[attr]; ok {
			return n, nil
		}
		return nil, unknown("constant", attr, rng)
	case "var":
		return b.variable(attr, rng)
	}
	return nil, diagError(rng, "Invalid reference", fmt.Sprintf("Unknown namespace %q.", root))
}

func traversalAttr(tr hcl.Traversal) (string, bool) {
	if len(tr) != 2 {
		return "", false
	}
	attr, ok := tr[1].(hcl.TraverseAttr)
	return attr.Name, ok
}

func (b *builder) call(e *hclsyntax.FunctionCallExpr, sc *scope) (expr.Node, error) {
	rng := e.Range()
	if e.ExpandFinal {
		return nil, diagError(rng, "Unsupported expansion", "Argument expansion is not allowed.")
	}
	arity := func(n int) error {
		if len(e.Args) != n {
			return diagError(rng, "Wrong number of arguments",
				fmt.Sprintf("%s takes %d arguments, got %d.", e.Name, n, len(e.Args)))
		}
		return nil
	}

	switch e.Name {
	case "lookup":
		if err := arity(2); err != nil {
			return nil, err
		}
		name, err := keyword(e.Args[0])
		if err != nil {
			return nil, err
		}
		c, ok := b.interpolants[name]
		if !ok {
			return nil, unknown("interpolant", name, e.Args[0].Range())
		}
		x, err := b.node(e.Args[1], sc)
		if err != nil {
			return nil, err
		}
		return expr.Apply(c, x), nil

	case "grad":
		if len(e.Args) < 3 {
			return nil, diagError(rng, "Wrong number of arguments", "grad takes a function, an argument index and the arguments.")
		}
		name, err := keyword(e.Args[0])
		if err != nil {
			return nil, err
		}
		base, err := b.callable(name, e.Args[0].Range())
		if err != nil {
			return nil, err
		}
		k, err := integer(e.Args[1])
		if err != nil {
			return nil, err
		}
		args, err := b.nodes(e.Args[2:], sc)
		if err != nil {
			return nil, err
		}
		if err := checkArity(base, len(args), rng); err != nil {
			return nil, err
		}
		if k < 0 || k >= len(args) {
			return nil, diagError(e.Args[1].Range(), "Invalid argument index",
				fmt.Sprintf("%s has no argument %d.", name, k))
		}
		return expr.Apply(expr.GradientOf(base, k), args...), nil

	case "index":
		if err := arity(3); err != nil {
			return nil, err
		}
		x, err := b.node(e.Args[0], sc)
		if err != nil {
			return nil, err
		}
		start, err := integer(e.Args[1])
		if err != nil {
			return nil, err
		}
		stop, err := integer(e.Args[2])
		if err != nil {
			return nil, err
		}
		if start < 0 || stop <= start {
			return nil, diagError(rng, "Invalid slice", fmt.Sprintf("index needs 0 <= start < stop, got %d:%d.", start, stop))
		}
		return expr.Index(x, start, stop), nil
	}

	if op, ok := binaryCalls[e.Name]; ok {
		if err := arity(2); err != nil {
			return nil, err
		}
		args, err := b.nodes(e.Args, sc)
		if err != nil {
			return nil, err
		}
		return op(args[0], args[1]), nil
	}
	if op, ok := unaryCalls[e.Name]; ok {
		if err := arity(1); err != nil {
			return nil, err
		}
		x, err := b.node(e.Args[0], sc)
		if err != nil {
			return nil, err
		}
		return op(x), nil
	}

	c, err := b.callable(e.Name, e.NameRange)
	if err != nil {
		return nil, err
	}
	args, err := b.nodes(e.Args, sc)
	if err != nil {
		return nil, err
	}
	if err := checkArity(c, len(args), rng); err != nil {
		return nil, err
	}
	return expr.Apply(c, args...), nil
}

func checkArity(c *expr.Callable, n int, rng hcl.Range) error {
	if (c.Arity() < 0 && n == 0) || (c.Arity() >= 0 && n != c.Arity()) {
		want := fmt.Sprint(c.Arity())
		if c.Arity() < 0 {
			want = "at least 1"
		}
		return diagError(rng, "Wrong number of arguments",
			fmt.Sprintf("%s takes %s arguments, got %d.", c.Name(), want, n))
	}
	return nil
}

// keyword reads a name given either as a bare word or as a string.
func keyword(e hclsyntax.Expression) (string, error) {
	if kw := hcl.ExprAsKeyword(e); kw != "" {
		return kw, nil
	}
	v, diags := e.Value(nil)
	if diags.HasErrors() || v.IsNull() || v.Type() != cty.String {
		return "", diagError(e.Range(), "Invalid name", "Expected a name or a string.")
	}
	return v.AsString(), nil
}

func integer(e hclsyntax.Expression) (int, error) {
	v, diags := e.Value(nil)
	if diags.HasErrors() {
		return 0, diags
	}
	var i int
	if v.IsNull() || v.Type() != cty.Number || gocty.FromCtyValue(v, &i) != nil {
		return 0, diagError(e.Range(), "Invalid integer", "Expected a whole number.")
	}
	return i, nil
}

func number(v cty.Value, rng hcl.Range) (float64, error) {
	if v.IsNull() || v.Type() != cty.Number {
		return 0, diagError(rng, "Invalid number", "Expected a number.")
	}
	var f float64
	if err := gocty.FromCtyValue(v, &f); err != nil || math.IsInf(f, 0) {
		return 0, diagError(rng, "Invalid number", "The number does not fit a float64.")
	}
	return f, nil
}

func diagError(rng hcl.Range, summary, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}}
}

func unknown(kind, name string, rng hcl.Range) hcl.Diagnostics {
	return diagError(rng, "Unknown "+kind, fmt.Sprintf("No %s named %q is declared.", kind, name))
}

func duplicate(kind, name string, rng, prev hcl.Range) hcl.Diagnostics {
	return diagError(rng, "Duplicate "+kind, fmt.Sprintf("%s %q was already declared at %s.", kind, name, prev))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
