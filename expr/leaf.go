package expr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ============================================================
// Constant
// ============================================================

// Constant is a numeric literal: a scalar, a dense matrix or a Sparse matrix.
type Constant struct {
	base
	value mat.Matrix
}

// NewConstant panics if value holds NaN or an infinity.
func NewConstant(value mat.Matrix, opts ...Option) *Constant {
	r, c := value.Dims()
	if sp, ok := value.(*Sparse); ok {
		for _, e := range sp.entries {
			mustFinite(e.Value)
		}
	} else {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				mustFinite(value.At(i, j))
			}
		}
	}
	return &Constant{base: newBase(opts), value: value}
}

func mustFinite(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("expr: constant %v is not finite", v))
	}
}

// Scalar is a 1x1 constant.
func Scalar(v float64, opts ...Option) *Constant {
	return NewConstant(mat.NewDense(1, 1, []float64{v}), opts...)
}

// Vector is a column constant.
func Vector(values ...float64) *Constant {
	return NewConstant(mat.NewDense(len(values), 1, append([]float64(nil), values...)))
}

func (c *Constant) Kind() Kind        { return KindConstant }
func (c *Constant) Children() []Node  { return nil }
func (c *Constant) Value() mat.Matrix { return c.value }

// IsZero reports whether every entry is zero.
func (c *Constant) IsZero() bool {
	if sp, ok := c.value.(*Sparse); ok {
		for _, e := range sp.entries {
			if e.Value != 0 {
				return false
			}
		}
		return true
	}
	r, cols := c.value.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			if c.value.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

func (c *Constant) String() string {
	r, cols := c.value.Dims()
	if r == 1 && cols == 1 {
		return c.label(fmt.Sprintf("%g", c.value.At(0, 0)))
	}
	return c.label(fmt.Sprintf("const(%dx%d)", r, cols))
}

// ============================================================
// Sparse matrices
// ============================================================

// Entry is one stored value of a Sparse matrix.
type Entry struct {
	Row, Col int
	Value    float64
}

// Sparse is an immutable coordinate-format matrix. It implements mat.Matrix.
type Sparse struct {
	rows, cols int
	entries    []Entry
	index      map[[2]int]float64
}

// NewSparse sums duplicate coordinates. It panics on an entry outside the
// matrix.
func NewSparse(rows, cols int, entries []Entry) *Sparse {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("expr: sparse matrix shape %dx%d", rows, cols))
	}
	s := &Sparse{rows: rows, cols: cols, index: make(map[[2]int]float64, len(entries))}
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			panic(fmt.Sprintf("expr: sparse entry (%d,%d) outside %dx%d", e.Row, e.Col, rows, cols))
		}
		s.index[[2]int{e.Row, e.Col}] += e.Value
	}
	for _, e := range entries {
		k := [2]int{e.Row, e.Col}
		if v, ok := s.index[k]; ok {
			s.entries = append(s.entries, Entry{Row: e.Row, Col: e.Col, Value: v})
			delete(s.index, k)
		}
	}
	for _, e := range s.entries {
		s.index[[2]int{e.Row, e.Col}] = e.Value
	}
	return s
}

func (s *Sparse) Dims() (r, c int) { return s.rows, s.cols }

func (s *Sparse) At(i, j int) float64 {
	if i < 0 || i >= s.rows || j < 0 || j >= s.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	return s.index[[2]int{i, j}]
}

func (s *Sparse) T() mat.Matrix { return mat.Transpose{Matrix: s} }

// NonZero returns the stored entries in first-insertion order.
func (s *Sparse) NonZero() []Entry { return append([]Entry(nil), s.entries...) }

// ============================================================
// Placeholders
// ============================================================

// Time stands for the simulation time.
type Time struct{ base }

func NewTime(opts ...Option) *Time { return &Time{base: newBase(opts)} }

func (t *Time) Kind() Kind       { return KindTime }
func (t *Time) Children() []Node { return nil }
func (t *Time) String() string   { return t.label("t") }

// Input stands for a named external input.
type Input struct {
	base
	input string
}

func NewInput(name string, opts ...Option) *Input {
	return &Input{base: newBase(opts), input: name}
}

func (in *Input) Kind() Kind        { return KindInput }
func (in *Input) Children() []Node  { return nil }
func (in *Input) InputName() string { return in.input }
func (in *Input) String() string    { return in.label(in.input) }

// StateVector selects rows of the global state vector. Its value is the
// concatenation of the slices in order.
type StateVector struct {
	base
	slices []Slice
}

// NewStateVector panics when no slice is given or a slice is malformed.
func NewStateVector(slices []Slice, opts ...Option) *StateVector {
	if len(slices) == 0 {
		panic("expr: state vector without slices")
	}
	for _, s := range slices {
		if err := s.validate(); err != nil {
			panic(err.Error())
		}
	}
	return &StateVector{base: newBase(opts), slices: append([]Slice(nil), slices...)}
}

func (sv *StateVector) Kind() Kind       { return KindStateVector }
func (sv *StateVector) Children() []Node { return nil }
func (sv *StateVector) Slices() []Slice  { return append([]Slice(nil), sv.slices...) }

// Size is the number of state entries selected.
func (sv *StateVector) Size() int {
	n := 0
	for _, s := range sv.slices {
		n += s.Len()
	}
	return n
}

// Covers reports whether global state row i is selected.
func (sv *StateVector) Covers(i int) bool {
	for _, s := range sv.slices {
		if i >= s.Start && i < s.Stop {
			return true
		}
	}
	return false
}

func (sv *StateVector) String() string {
	parts := make([]string, len(sv.slices))
	for i, s := range sv.slices {
		parts[i] = s.String()
	}
	return sv.label(fmt.Sprintf("y%v", parts))
}

// Parameter is a modeling-stage placeholder. Parameters are substituted
// before a graph reaches the lowering engine, which rejects them.
type Parameter struct {
	base
	param string
}

func NewParameter(name string, opts ...Option) *Parameter {
	return &Parameter{base: newBase(opts), param: name}
}

func (p *Parameter) Kind() Kind            { return KindParameter }
func (p *Parameter) Children() []Node      { return nil }
func (p *Parameter) ParameterName() string { return p.param }
func (p *Parameter) String() string        { return p.label(p.param) }
