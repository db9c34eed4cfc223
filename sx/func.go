package sx

import (
	"fmt"
	"math"
)

// ============================================================
// Func — named elementwise functions
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr   { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr   { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr   { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr   { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr    { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr  { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr   { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr  { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr  { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr  { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr  { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr  { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr  { return funcOf("tanh", arg).Simplify() }
func AsinhOf(arg Expr) Expr { return funcOf("asinh", arg).Simplify() }
func FloorOf(arg Expr) Expr { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr  { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr  { return funcOf("sign", arg).Simplify() }

var floatFuncs = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"exp":   math.Exp,
	"ln":    math.Log,
	"abs":   math.Abs,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asinh": math.Asinh,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sign": func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	},
}

func (f *Func) Simplify() Expr {
	arg := f.arg
	if n, ok := arg.(*Num); ok {
		switch f.name {
		case "abs":
			if n.IsNegative() {
				return MulOf(N(-1), n)
			}
			return n
		case "sign":
			return N(int64(n.val.Sign()))
		}
		if fn, known := floatFuncs[f.name]; known {
			if v, finite := floatNum(fn(n.Float64())); finite {
				return v
			}
		}
	}
	switch f.name {
	case "ln":
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 2 {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegOne() {
				return AbsOf(MulOf(m.factors[1:]...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) eval(e *evaluator) (*Num, bool) {
	n, ok := e.of(f.arg)
	if !ok {
		return nil, false
	}
	if v, ok := funcOf(f.name, n).Simplify().(*Num); ok {
		return v, true
	}
	return nil, false
}

func (f *Func) subs(r *rewriter) Expr { return funcOf(f.name, r.of(f.arg)).Simplify() }

func (f *Func) diff(d *differ) Expr {
	du := d.of(f.arg)
	if n, ok := du.(*Num); ok && n.IsZero() {
		return du
	}
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = f
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "abs":
		outer = SignOf(f.arg)
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(f, N(2))))
	case "asinh":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), F(-1, 2))
	case "floor", "ceil", "sign":
		return N(0)
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

// ============================================================
// Cmp — comparison, 1 when it holds and 0 otherwise
// ============================================================

type CmpOp int

const (
	Lt CmpOp = iota
	Le
	Gt
	Ge
	Eq
	Ne
)

var cmpSymbols = [...]string{Lt: "<", Le: "<=", Gt: ">", Ge: ">=", Eq: "==", Ne: "!="}

func (op CmpOp) String() string {
	if op < 0 || int(op) >= len(cmpSymbols) {
		return fmt.Sprintf("CmpOp(%d)", int(op))
	}
	return cmpSymbols[op]
}

func (op CmpOp) holds(c int) bool {
	switch op {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	}
	return false
}

type Cmp struct {
	op   CmpOp
	l, r Expr
}

func CmpOf(op CmpOp, l, r Expr) Expr { return (&Cmp{op: op, l: l, r: r}).Simplify() }

func (c *Cmp) Simplify() Expr {
	ln, ok1 := c.l.(*Num)
	rn, ok2 := c.r.(*Num)
	if ok1 && ok2 {
		return boolNum(c.op.holds(numCmp(ln, rn)))
	}
	return c
}

func boolNum(b bool) *Num {
	if b {
		return N(1)
	}
	return N(0)
}

func (c *Cmp) String() string {
	return "(" + c.l.String() + " " + c.op.String() + " " + c.r.String() + ")"
}

func (c *Cmp) eval(e *evaluator) (*Num, bool) {
	l, ok1 := e.of(c.l)
	r, ok2 := e.of(c.r)
	if !ok1 || !ok2 {
		return nil, false
	}
	return boolNum(c.op.holds(numCmp(l, r))), true
}

func (c *Cmp) subs(r *rewriter) Expr { return CmpOf(c.op, r.of(c.l), r.of(c.r)) }
func (c *Cmp) diff(*differ) Expr     { return N(0) }

func (c *Cmp) Equal(other Expr) bool {
	o, ok := other.(*Cmp)
	return ok && c.op == o.op && c.l.Equal(o.l) && c.r.Equal(o.r)
}

func (c *Cmp) exprType() string { return "cmp" }
func (c *Cmp) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "cmp", "op": c.op.String(), "l": c.l.toJSON(), "r": c.r.toJSON()}
}

// ============================================================
// Extremum — binary min / max
// ============================================================

type Extremum struct {
	max  bool
	l, r Expr
}

func MinOf(l, r Expr) Expr { return (&Extremum{l: l, r: r}).Simplify() }
func MaxOf(l, r Expr) Expr { return (&Extremum{max: true, l: l, r: r}).Simplify() }

func (x *Extremum) Simplify() Expr {
	ln, ok1 := x.l.(*Num)
	rn, ok2 := x.r.(*Num)
	if ok1 && ok2 {
		return x.pick(ln, rn)
	}
	if x.l.Equal(x.r) {
		return x.l
	}
	return x
}

func (x *Extremum) pick(l, r *Num) *Num {
	c := numCmp(l, r)
	if (x.max && c >= 0) || (!x.max && c <= 0) {
		return l
	}
	return r
}

func (x *Extremum) name() string {
	if x.max {
		return "max"
	}
	return "min"
}

func (x *Extremum) String() string {
	return x.name() + "(" + x.l.String() + ", " + x.r.String() + ")"
}

func (x *Extremum) eval(e *evaluator) (*Num, bool) {
	l, ok1 := e.of(x.l)
	r, ok2 := e.of(x.r)
	if !ok1 || !ok2 {
		return nil, false
	}
	return x.pick(l, r), true
}

func (x *Extremum) subs(r *rewriter) Expr {
	return (&Extremum{max: x.max, l: r.of(x.l), r: r.of(x.r)}).Simplify()
}

// The derivative follows whichever operand is selected; ties go left.
func (x *Extremum) diff(d *differ) Expr {
	leftOp, rightOp := Le, Gt
	if x.max {
		leftOp, rightOp = Ge, Lt
	}
	return AddOf(
		MulOf(CmpOf(leftOp, x.l, x.r), d.of(x.l)),
		MulOf(CmpOf(rightOp, x.l, x.r), d.of(x.r)),
	)
}

func (x *Extremum) Equal(other Expr) bool {
	o, ok := other.(*Extremum)
	return ok && x.max == o.max && x.l.Equal(o.l) && x.r.Equal(o.r)
}

func (x *Extremum) exprType() string { return x.name() }
func (x *Extremum) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": x.name(), "l": x.l.toJSON(), "r": x.r.toJSON()}
}
