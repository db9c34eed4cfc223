package expr

import (
	"fmt"
	"math"

	"github.com/njchilds90/symlower/sx"
)

// FuncKind tells the lowering engine how to treat a callable.
type FuncKind int

const (
	FuncElementwise FuncKind = iota
	FuncMin
	FuncMax
	FuncAbs
	FuncInterpolant
	FuncGradient
	FuncOpaque
)

var funcKindNames = [...]string{
	FuncElementwise: "elementwise",
	FuncMin:         "min",
	FuncMax:         "max",
	FuncAbs:         "abs",
	FuncInterpolant: "interpolant",
	FuncGradient:    "gradient",
	FuncOpaque:      "opaque",
}

func (k FuncKind) String() string {
	if int(k) < len(funcKindNames) {
		return funcKindNames[k]
	}
	return fmt.Sprintf("FuncKind(%d)", int(k))
}

// HostRule computes a callable's value from its lowered arguments.
type HostRule func(args []*sx.Matrix) (*sx.Matrix, error)

// AnalyticRule returns the partial derivative of a callable with respect to
// argument k, as a graph over the same arguments.
type AnalyticRule func(args []Node, k int) (Node, error)

type DerivativeKind int

const (
	DerivativeNone DerivativeKind = iota
	DerivativeAnalytic
	DerivativeBridge
)

// Derivative is the provider a callable offers for its partial derivatives.
type Derivative struct {
	Kind DerivativeKind
	Rule AnalyticRule
}

var (
	NoDerivative     = Derivative{Kind: DerivativeNone}
	BridgeDerivative = Derivative{Kind: DerivativeBridge}
)

func Analytic(rule AnalyticRule) Derivative {
	return Derivative{Kind: DerivativeAnalytic, Rule: rule}
}

// Callable is a function a Function node applies. Callables are immutable
// and may be shared between graphs and goroutines.
type Callable struct {
	kind  FuncKind
	name  string
	arity int // -1: one or more arguments
	rule  HostRule
	deriv Derivative

	method sx.Method
	xs, ys []float64

	base *Callable
	k    int
}

func (c *Callable) Kind() FuncKind         { return c.kind }
func (c *Callable) Name() string           { return c.name }
func (c *Callable) Arity() int             { return c.arity }
func (c *Callable) Rule() HostRule         { return c.rule }
func (c *Callable) Derivative() Derivative { return c.deriv }
func (c *Callable) Method() sx.Method      { return c.method }
func (c *Callable) Base() *Callable        { return c.base }
func (c *Callable) ArgIndex() int          { return c.k }
func (c *Callable) String() string         { return c.name }

// Samples returns copies of an interpolant's sample points.
func (c *Callable) Samples() (xs, ys []float64) {
	return append([]float64(nil), c.xs...), append([]float64(nil), c.ys...)
}

func elementwise(name string, f func(sx.Expr) sx.Expr, d Derivative) *Callable {
	return &Callable{
		kind:  FuncElementwise,
		name:  name,
		arity: 1,
		rule: func(args []*sx.Matrix) (*sx.Matrix, error) {
			return sx.Map(args[0], f), nil
		},
		deriv: d,
	}
}

func unaryDerivative(f func(x Node) Node) Derivative {
	return Analytic(func(args []Node, _ int) (Node, error) { return f(args[0]), nil })
}

// Built-in elementwise functions. Those without an analytic derivative go
// through the differentiation bridge.
var (
	FnSin, FnCos, FnTan, FnExp, FnLog, FnSqrt *Callable
	FnSinh, FnCosh, FnTanh                    *Callable
	FnArcsin, FnArccos, FnArctan, FnArcsinh   *Callable
)

var (
	FnMin = &Callable{kind: FuncMin, name: "min", arity: -1, deriv: NoDerivative}
	FnMax = &Callable{kind: FuncMax, name: "max", arity: -1, deriv: NoDerivative}
	FnAbs = &Callable{kind: FuncAbs, name: "abs", arity: 1, deriv: unaryDerivative(func(x Node) Node { return Sign(x) })}
)

func init() {
	FnSin = elementwise("sin", sx.SinOf, unaryDerivative(func(x Node) Node { return Cos(x) }))
	FnCos = elementwise("cos", sx.CosOf, unaryDerivative(func(x Node) Node { return Neg(Sin(x)) }))
	FnExp = elementwise("exp", sx.ExpOf, unaryDerivative(func(x Node) Node { return Exp(x) }))
	FnLog = elementwise("log", sx.LnOf, unaryDerivative(func(x Node) Node { return Div(Scalar(1), x) }))
	FnSqrt = elementwise("sqrt", sx.SqrtOf, unaryDerivative(func(x Node) Node { return Div(Scalar(0.5), Sqrt(x)) }))
	FnSinh = elementwise("sinh", sx.SinhOf, unaryDerivative(func(x Node) Node { return Cosh(x) }))
	FnCosh = elementwise("cosh", sx.CoshOf, unaryDerivative(func(x Node) Node { return Sinh(x) }))
	FnTanh = elementwise("tanh", sx.TanhOf, unaryDerivative(func(x Node) Node {
		return Sub(Scalar(1), Pow(Tanh(x), Scalar(2)))
	}))
	FnTan = elementwise("tan", sx.TanOf, BridgeDerivative)
	FnArcsin = elementwise("arcsin", sx.AsinOf, BridgeDerivative)
	FnArccos = elementwise("arccos", sx.AcosOf, BridgeDerivative)
	FnArctan = elementwise("arctan", sx.AtanOf, BridgeDerivative)
	FnArcsinh = elementwise("arcsinh", sx.AsinhOf, BridgeDerivative)
	for _, c := range []*Callable{
		FnSin, FnCos, FnTan, FnExp, FnLog, FnSqrt, FnSinh, FnCosh, FnTanh,
		FnArcsin, FnArccos, FnArctan, FnArcsinh, FnMin, FnMax, FnAbs,
	} {
		named[c.name] = c
	}
}

var named = map[string]*Callable{}

// Named looks up a built-in callable by name.
func Named(name string) (*Callable, bool) {
	c, ok := named[name]
	return c, ok
}

// NewInterpolant builds a one-argument callable that interpolates the
// samples (xs[i], ys[i]). xs must be strictly increasing; pchip needs three
// samples and a cubic spline four.
func NewInterpolant(name string, method sx.Method, xs, ys []float64) (*Callable, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("expr: interpolant %s: %d x samples but %d y samples", name, len(xs), len(ys))
	}
	need := 3
	switch method {
	case sx.Pchip:
	case sx.CubicSpline:
		need = 4
	default:
		return nil, fmt.Errorf("expr: interpolant %s: unknown method %v", name, method)
	}
	if len(xs) < need {
		return nil, fmt.Errorf("expr: interpolant %s: %s needs at least %d samples, got %d", name, method, need, len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, fmt.Errorf("expr: interpolant %s: sample %d is not finite", name, i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("expr: interpolant %s: x samples not strictly increasing at %d", name, i)
		}
	}
	return &Callable{
		kind:   FuncInterpolant,
		name:   name,
		arity:  1,
		deriv:  BridgeDerivative,
		method: method,
		xs:     append([]float64(nil), xs...),
		ys:     append([]float64(nil), ys...),
	}, nil
}

// GradientOf is the partial derivative of base with respect to argument k.
func GradientOf(base *Callable, k int) *Callable {
	if k < 0 || (base.arity >= 0 && k >= base.arity) {
		panic(fmt.Sprintf("expr: %s has no argument %d", base.name, k))
	}
	d := BridgeDerivative
	if base.deriv.Kind == DerivativeNone {
		d = NoDerivative
	}
	return &Callable{
		kind:  FuncGradient,
		name:  fmt.Sprintf("grad_%d(%s)", k, base.name),
		arity: base.arity,
		deriv: d,
		base:  base,
		k:     k,
	}
}

// Opaque wraps a host function of arity arguments.
func Opaque(name string, arity int, rule HostRule, d Derivative) *Callable {
	if rule == nil {
		panic("expr: opaque callable " + name + " without a rule")
	}
	if d.Kind == DerivativeAnalytic && d.Rule == nil {
		panic("expr: opaque callable " + name + " has an analytic derivative without a rule")
	}
	return &Callable{kind: FuncOpaque, name: name, arity: arity, rule: rule, deriv: d}
}

// ============================================================
// Function node
// ============================================================

// Function applies a callable to ordered arguments.
type Function struct {
	base
	fn   *Callable
	args []Node
}

// NewFunction panics when the number of arguments does not match the
// callable's arity.
func NewFunction(c *Callable, args []Node, opts ...Option) *Function {
	if (c.arity < 0 && len(args) == 0) || (c.arity >= 0 && len(args) != c.arity) {
		panic(fmt.Sprintf("expr: %s called with %d arguments", c.name, len(args)))
	}
	return &Function{base: newBase(opts), fn: c, args: append([]Node(nil), args...)}
}

// Apply is NewFunction without options.
func Apply(c *Callable, args ...Node) *Function { return NewFunction(c, args) }

func Sin(x Node) *Function     { return Apply(FnSin, x) }
func Cos(x Node) *Function     { return Apply(FnCos, x) }
func Tan(x Node) *Function     { return Apply(FnTan, x) }
func Exp(x Node) *Function     { return Apply(FnExp, x) }
func Log(x Node) *Function     { return Apply(FnLog, x) }
func Sqrt(x Node) *Function    { return Apply(FnSqrt, x) }
func Sinh(x Node) *Function    { return Apply(FnSinh, x) }
func Cosh(x Node) *Function    { return Apply(FnCosh, x) }
func Tanh(x Node) *Function    { return Apply(FnTanh, x) }
func Arcsinh(x Node) *Function { return Apply(FnArcsinh, x) }
func Arctan(x Node) *Function  { return Apply(FnArctan, x) }

// Min is the smallest entry over all arguments.
func Min(args ...Node) *Function { return Apply(FnMin, args...) }

// Max is the largest entry over all arguments.
func Max(args ...Node) *Function { return Apply(FnMax, args...) }

// AbsFunc is the function form of Abs.
func AbsFunc(x Node) *Function { return Apply(FnAbs, x) }

func (f *Function) Kind() Kind          { return KindFunction }
func (f *Function) Children() []Node    { return append([]Node(nil), f.args...) }
func (f *Function) Callable() *Callable { return f.fn }
func (f *Function) Args() []Node        { return append([]Node(nil), f.args...) }
func (f *Function) String() string      { return f.label(f.fn.name + "(" + joinNodes(f.args, ", ") + ")") }
