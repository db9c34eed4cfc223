package sx

import (
	"fmt"
	"strings"
)

// ============================================================
// Matrix — dense matrix of scalar expressions
// ============================================================

// Matrix is immutable once returned by a constructor or an operation; the
// lowering engine shares *Matrix values by pointer.
type Matrix struct {
	rows, cols int
	data       []Expr // row-major
}

func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("sx: negative matrix shape %dx%d", rows, cols))
	}
	data := make([]Expr, rows*cols)
	for i := range data {
		data[i] = N(0)
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

func MatrixFromSlice(rows, cols int, entries []Expr) *Matrix {
	if len(entries) != rows*cols {
		panic(fmt.Sprintf("sx: MatrixFromSlice needs %d entries, got %d", rows*cols, len(entries)))
	}
	return &Matrix{rows: rows, cols: cols, data: append([]Expr(nil), entries...)}
}

// Column returns a column vector.
func Column(entries ...Expr) *Matrix { return MatrixFromSlice(len(entries), 1, entries) }

// Scalar wraps e as a 1x1 matrix.
func Scalar(e Expr) *Matrix { return &Matrix{rows: 1, cols: 1, data: []Expr{e}} }

// FromFloats builds a numeric matrix from row-major values. It panics on
// NaN or infinity.
func FromFloats(rows, cols int, values []float64) *Matrix {
	entries := make([]Expr, len(values))
	for i, v := range values {
		entries[i] = NFloat(v)
	}
	return MatrixFromSlice(rows, cols, entries)
}

// FiniteFloats is FromFloats for values that may not be finite. The error
// is a *NonFiniteError naming the first offending value.
func FiniteFloats(rows, cols int, values []float64) (*Matrix, error) {
	entries := make([]Expr, len(values))
	for i, v := range values {
		n, err := Finite(v)
		if err != nil {
			return nil, err
		}
		entries[i] = n
	}
	return MatrixFromSlice(rows, cols, entries), nil
}

// MatSym returns a matrix of fresh-named symbols name_0, name_1, … in
// row-major order, or a single symbol called name when the shape is 1x1.
func MatSym(name string, rows, cols int) *Matrix {
	if rows == 1 && cols == 1 {
		return Scalar(S(name))
	}
	entries := make([]Expr, rows*cols)
	for i := range entries {
		entries[i] = S(fmt.Sprintf("%s_%d", name, i))
	}
	return MatrixFromSlice(rows, cols, entries)
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("sx: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row*m.cols+col]
}

// At returns the k-th entry in row-major order.
func (m *Matrix) At(k int) Expr { return m.data[k] }

func (m *Matrix) Rows() int      { return m.rows }
func (m *Matrix) Cols() int      { return m.cols }
func (m *Matrix) Len() int       { return len(m.data) }
func (m *Matrix) Shape() Shape   { return Shape{Rows: m.rows, Cols: m.cols} }
func (m *Matrix) IsScalar() bool { return m.rows == 1 && m.cols == 1 }

// Entries returns a copy of the entries in row-major order.
func (m *Matrix) Entries() []Expr { return append([]Expr(nil), m.data...) }

func (m *Matrix) String() string {
	if m.IsScalar() {
		return m.data[0].String()
	}
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i*m.cols+j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

// Evaluate folds every entry to a float64, row-major.
func (m *Matrix) Evaluate() ([]float64, error) {
	ev := &evaluator{memo: map[Expr]evalResult{}}
	out := make([]float64, len(m.data))
	for i, e := range m.data {
		n, ok := ev.of(e)
		if !ok {
			return nil, &EvalError{Index: i, Expr: e.String()}
		}
		out[i] = n.Float64()
	}
	return out, nil
}

// Subs substitutes env into every entry, sharing one memo across entries.
func (m *Matrix) Subs(env map[string]Expr) *Matrix {
	r := newRewriter(env)
	return &Matrix{rows: m.rows, cols: m.cols, data: r.all(m.data)}
}

// Map applies f to every entry.
func Map(m *Matrix, f func(Expr) Expr) *Matrix {
	out := make([]Expr, len(m.data))
	for i, e := range m.data {
		out[i] = f(e)
	}
	return &Matrix{rows: m.rows, cols: m.cols, data: out}
}

// ============================================================
// Elementwise operations (a 1x1 operand broadcasts)
// ============================================================

func elementwise(op string, a, b *Matrix, f func(x, y Expr) Expr) (*Matrix, error) {
	switch {
	case a.rows == b.rows && a.cols == b.cols:
		out := make([]Expr, len(a.data))
		for i := range out {
			out[i] = f(a.data[i], b.data[i])
		}
		return &Matrix{rows: a.rows, cols: a.cols, data: out}, nil
	case a.IsScalar():
		x := a.data[0]
		return Map(b, func(y Expr) Expr { return f(x, y) }), nil
	case b.IsScalar():
		y := b.data[0]
		return Map(a, func(x Expr) Expr { return f(x, y) }), nil
	}
	return nil, &ShapeMismatchError{Op: op, Left: a.Shape(), Right: b.Shape()}
}

func Plus(a, b *Matrix) (*Matrix, error) {
	return elementwise("plus", a, b, func(x, y Expr) Expr { return AddOf(x, y) })
}

func Minus(a, b *Matrix) (*Matrix, error) {
	return elementwise("minus", a, b, Subtract)
}

func Times(a, b *Matrix) (*Matrix, error) {
	return elementwise("times", a, b, func(x, y Expr) Expr { return MulOf(x, y) })
}

func Rdivide(a, b *Matrix) (*Matrix, error) {
	return elementwise("rdivide", a, b, Divide)
}

func Power(a, b *Matrix) (*Matrix, error) {
	return elementwise("power", a, b, PowOf)
}

func Compare(op CmpOp, a, b *Matrix) (*Matrix, error) {
	return elementwise(op.String(), a, b, func(x, y Expr) Expr { return CmpOf(op, x, y) })
}

func Fmin(a, b *Matrix) (*Matrix, error) { return elementwise("fmin", a, b, MinOf) }
func Fmax(a, b *Matrix) (*Matrix, error) { return elementwise("fmax", a, b, MaxOf) }

func Neg(m *Matrix) *Matrix  { return Map(m, Negate) }
func Fabs(m *Matrix) *Matrix { return Map(m, AbsOf) }

// ============================================================
// Structural operations
// ============================================================

// MatMul is the matrix product; a 1x1 operand scales the other.
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a.IsScalar() || b.IsScalar() {
		return Times(a, b)
	}
	if a.cols != b.rows {
		return nil, &ShapeMismatchError{Op: "mtimes", Left: a.Shape(), Right: b.Shape()}
	}
	out := make([]Expr, a.rows*b.cols)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < b.cols; j++ {
			terms := make([]Expr, 0, a.cols)
			for k := 0; k < a.cols; k++ {
				terms = append(terms, MulOf(a.data[i*a.cols+k], b.data[k*b.cols+j]))
			}
			out[i*b.cols+j] = AddOf(terms...)
		}
	}
	return &Matrix{rows: a.rows, cols: b.cols, data: out}, nil
}

func Transpose(m *Matrix) *Matrix {
	out := make([]Expr, len(m.data))
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return &Matrix{rows: m.cols, cols: m.rows, data: out}
}

// Kron is the Kronecker product.
func Kron(a, b *Matrix) *Matrix {
	rows, cols := a.rows*b.rows, a.cols*b.cols
	out := make([]Expr, rows*cols)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			aij := a.data[i*a.cols+j]
			for k := 0; k < b.rows; k++ {
				for l := 0; l < b.cols; l++ {
					out[(i*b.rows+k)*cols+j*b.cols+l] = MulOf(aij, b.data[k*b.cols+l])
				}
			}
		}
	}
	return &Matrix{rows: rows, cols: cols, data: out}
}

// Vertcat stacks matrices vertically. Empty operands are skipped.
func Vertcat(ms ...*Matrix) (*Matrix, error) {
	var first *Matrix
	rows := 0
	for _, m := range ms {
		if m.Len() == 0 {
			continue
		}
		if first == nil {
			first = m
		} else if m.cols != first.cols {
			return nil, &ShapeMismatchError{Op: "vertcat", Left: first.Shape(), Right: m.Shape()}
		}
		rows += m.rows
	}
	if first == nil {
		return &Matrix{}, nil
	}
	out := make([]Expr, 0, rows*first.cols)
	for _, m := range ms {
		out = append(out, m.data...)
	}
	return &Matrix{rows: rows, cols: first.cols, data: out}, nil
}

// Slice returns rows [start, stop).
func (m *Matrix) Slice(start, stop int) (*Matrix, error) {
	if start < 0 || stop < start || stop > m.rows {
		return nil, &RangeError{Start: start, Stop: stop, Len: m.rows}
	}
	return &Matrix{rows: stop - start, cols: m.cols, data: m.data[start*m.cols : stop*m.cols]}, nil
}

// Sum adds every entry into a 1x1 matrix.
func Sum(m *Matrix) *Matrix { return Scalar(AddOf(m.data...)) }

// Mmin is the smallest entry over all operands, as a 1x1 matrix.
func Mmin(ms ...*Matrix) (*Matrix, error) { return reduce("mmin", MinOf, ms) }

// Mmax is the largest entry over all operands, as a 1x1 matrix.
func Mmax(ms ...*Matrix) (*Matrix, error) { return reduce("mmax", MaxOf, ms) }

func reduce(op string, f func(a, b Expr) Expr, ms []*Matrix) (*Matrix, error) {
	var acc Expr
	for _, m := range ms {
		for _, e := range m.data {
			if acc == nil {
				acc = e
			} else {
				acc = f(acc, e)
			}
		}
	}
	if acc == nil {
		return nil, fmt.Errorf("sx: %s of an empty matrix", op)
	}
	return Scalar(acc), nil
}

// ============================================================
// Derivatives
// ============================================================

func symbolsOf(x *Matrix) ([]*Sym, error) {
	syms := make([]*Sym, len(x.data))
	for i, e := range x.data {
		s, ok := e.(*Sym)
		if !ok {
			return nil, fmt.Errorf("sx: entry %d of the differentiation variable is %s, not a symbol", i, e)
		}
		syms[i] = s
	}
	return syms, nil
}

// Jacobian returns the len(f) x len(x) matrix of partial derivatives. Every
// entry of x must be a symbol.
func Jacobian(f, x *Matrix) (*Matrix, error) {
	syms, err := symbolsOf(x)
	if err != nil {
		return nil, err
	}
	out := make([]Expr, 0, len(f.data)*len(syms))
	diffs := make([]*differ, len(syms))
	for j, s := range syms {
		diffs[j] = newDiffer(s.name)
	}
	for _, e := range f.data {
		for j := range syms {
			out = append(out, diffs[j].of(e))
		}
	}
	return &Matrix{rows: len(f.data), cols: len(syms), data: out}, nil
}

// Gradient returns the gradient of the scalar f with respect to x, shaped
// like x.
func Gradient(f, x *Matrix) (*Matrix, error) {
	if !f.IsScalar() {
		return nil, &ShapeMismatchError{Op: "gradient", Left: f.Shape(), Right: x.Shape()}
	}
	syms, err := symbolsOf(x)
	if err != nil {
		return nil, err
	}
	out := make([]Expr, len(syms))
	for i, s := range syms {
		out[i] = Diff(f.data[0], s.name)
	}
	return &Matrix{rows: x.rows, cols: x.cols, data: out}, nil
}
