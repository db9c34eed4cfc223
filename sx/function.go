package sx

import "fmt"

// ============================================================
// Function — outputs compiled over symbolic parameters
// ============================================================

type Function struct {
	name   string
	params []*Matrix
	syms   [][]*Sym
	out    *Matrix
}

// NewFunction compiles out as a function of params. Every parameter entry
// must be a distinct symbol.
func NewFunction(name string, params []*Matrix, out *Matrix) (*Function, error) {
	seen := map[string]bool{}
	syms := make([][]*Sym, len(params))
	for i, p := range params {
		s, err := symbolsOf(p)
		if err != nil {
			return nil, fmt.Errorf("sx: function %s: parameter %d: %w", name, i, err)
		}
		for _, sym := range s {
			if seen[sym.name] {
				return nil, fmt.Errorf("sx: function %s: symbol %s appears in more than one parameter", name, sym.name)
			}
			seen[sym.name] = true
		}
		syms[i] = s
	}
	return &Function{name: name, params: params, syms: syms, out: out}, nil
}

func (f *Function) Name() string        { return f.name }
func (f *Function) NumParams() int      { return len(f.params) }
func (f *Function) Param(i int) *Matrix { return f.params[i] }
func (f *Function) Output() *Matrix     { return f.out }

func (f *Function) String() string {
	return fmt.Sprintf("%s:(%d)->%s", f.name, len(f.params), f.out.Shape())
}

// Call applies f to args. When every argument has its parameter's shape the
// parameters are substituted directly. When every parameter and the output
// are scalar, f is mapped elementwise over the arguments; 1x1 arguments
// broadcast and the others must share one shape.
func (f *Function) Call(args ...*Matrix) (*Matrix, error) {
	if len(args) != len(f.params) {
		return nil, fmt.Errorf("sx: function %s takes %d arguments, got %d", f.name, len(f.params), len(args))
	}
	direct := true
	for i, a := range args {
		if a.Shape() != f.params[i].Shape() {
			direct = false
			break
		}
	}
	if direct {
		env := map[string]Expr{}
		for i, a := range args {
			for k, s := range f.syms[i] {
				env[s.name] = a.data[k]
			}
		}
		return f.out.Subs(env), nil
	}
	return f.mapCall(args)
}

func (f *Function) mapCall(args []*Matrix) (*Matrix, error) {
	if !f.out.IsScalar() {
		return nil, &ShapeMismatchError{Op: "call " + f.name, Left: f.out.Shape(), Right: args[0].Shape()}
	}
	var shape *Shape
	for i, a := range args {
		if !f.params[i].IsScalar() {
			return nil, &ShapeMismatchError{Op: "call " + f.name, Left: f.params[i].Shape(), Right: a.Shape()}
		}
		if a.IsScalar() {
			continue
		}
		s := a.Shape()
		if shape == nil {
			shape = &s
		} else if *shape != s {
			return nil, &ShapeMismatchError{Op: "call " + f.name, Left: *shape, Right: s}
		}
	}
	if shape == nil {
		shape = &Shape{Rows: 1, Cols: 1}
	}
	body := f.out.data[0]
	out := make([]Expr, shape.Rows*shape.Cols)
	for k := range out {
		env := make(map[string]Expr, len(args))
		for i, a := range args {
			if a.IsScalar() {
				env[f.syms[i][0].name] = a.data[0]
			} else {
				env[f.syms[i][0].name] = a.data[k]
			}
		}
		out[k] = Subs(body, env)
	}
	return &Matrix{rows: shape.Rows, cols: shape.Cols, data: out}, nil
}
