package sx

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Method selects the spline a lookup table is fitted with.
type Method int

const (
	// Pchip is the monotone piecewise cubic Hermite interpolant (Fritsch–Butland).
	Pchip Method = iota
	// CubicSpline is the C2 cubic spline with not-a-knot end conditions.
	CubicSpline
)

func (m Method) String() string {
	switch m {
	case Pchip:
		return "pchip"
	case CubicSpline:
		return "cubic"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Table is an immutable one-dimensional lookup table. Predictions only read
// the fitted coefficients, so a Table may be shared between goroutines.
type Table struct {
	name   string
	method Method
	pred   interp.DerivativePredictor
}

// NewTable fits a table through the sample points (xs[i], ys[i]). xs must be
// strictly increasing.
func NewTable(name string, method Method, xs, ys []float64) (*Table, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("sx: table %s: %d x samples but %d y samples", name, len(xs), len(ys))
	}
	var fitted interface {
		interp.DerivativePredictor
		Fit(xs, ys []float64) error
	}
	switch method {
	case Pchip:
		fitted = &interp.FritschButland{}
	case CubicSpline:
		fitted = &interp.NotAKnotCubic{}
	default:
		return nil, fmt.Errorf("sx: table %s: unknown method %v", name, method)
	}
	if err := fitted.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("sx: table %s: %w", name, err)
	}
	return &Table{name: name, method: method, pred: fitted}, nil
}

func (t *Table) Name() string   { return t.name }
func (t *Table) Method() Method { return t.method }

// At evaluates the table (order 0) or its first derivative (order 1).
func (t *Table) At(x float64, order int) (float64, bool) {
	switch order {
	case 0:
		return t.pred.Predict(x), true
	case 1:
		return t.pred.PredictDerivative(x), true
	}
	return 0, false
}

// ============================================================
// Lookup — table evaluated at a scalar argument
// ============================================================

type Lookup struct {
	table *Table
	order int
	arg   Expr
}

// LookupOf evaluates table at arg.
func LookupOf(table *Table, arg Expr) Expr {
	return (&Lookup{table: table, arg: arg}).Simplify()
}

func (l *Lookup) Simplify() Expr {
	if n, ok := l.arg.(*Num); ok {
		if v, ok := l.table.At(n.Float64(), l.order); ok {
			if out, finite := floatNum(v); finite {
				return out
			}
		}
	}
	return l
}

func (l *Lookup) String() string {
	name := l.table.name
	for i := 0; i < l.order; i++ {
		name += "'"
	}
	return name + "(" + l.arg.String() + ")"
}

func (l *Lookup) eval(e *evaluator) (*Num, bool) {
	n, ok := e.of(l.arg)
	if !ok {
		return nil, false
	}
	v, ok := l.table.At(n.Float64(), l.order)
	if !ok {
		return nil, false
	}
	return floatNum(v)
}

func (l *Lookup) subs(r *rewriter) Expr {
	return (&Lookup{table: l.table, order: l.order, arg: r.of(l.arg)}).Simplify()
}

// Derivatives past the first stay symbolic and do not evaluate.
func (l *Lookup) diff(d *differ) Expr {
	du := d.of(l.arg)
	if n, ok := du.(*Num); ok && n.IsZero() {
		return du
	}
	return MulOf(&Lookup{table: l.table, order: l.order + 1, arg: l.arg}, du)
}

func (l *Lookup) Equal(other Expr) bool {
	o, ok := other.(*Lookup)
	return ok && l.table == o.table && l.order == o.order && l.arg.Equal(o.arg)
}

func (l *Lookup) exprType() string { return "lookup" }
func (l *Lookup) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"type":   "lookup",
		"table":  l.table.name,
		"method": l.table.method.String(),
		"order":  l.order,
		"arg":    l.arg.toJSON(),
	}
}
