package expr

import "fmt"

// Flavour distinguishes how a concatenation was assembled upstream. Both
// flavours lower to plain vertical concatenation.
type Flavour int

const (
	Numpy Flavour = iota
	SparseStack
)

func (f Flavour) String() string {
	if f == SparseStack {
		return "sparse_stack"
	}
	return "numpy"
}

// Concatenation stacks its children vertically in order.
type Concatenation struct {
	base
	flavour  Flavour
	children []Node
}

func NewConcatenation(flavour Flavour, children []Node, opts ...Option) *Concatenation {
	return &Concatenation{base: newBase(opts), flavour: flavour, children: append([]Node(nil), children...)}
}

// Concat is a numpy concatenation of children.
func Concat(children ...Node) *Concatenation { return NewConcatenation(Numpy, children) }

func (c *Concatenation) Kind() Kind       { return KindConcatenation }
func (c *Concatenation) Children() []Node { return append([]Node(nil), c.children...) }
func (c *Concatenation) Flavour() Flavour { return c.flavour }
func (c *Concatenation) String() string   { return c.label("[" + joinNodes(c.children, "; ") + "]") }

// ============================================================
// DomainConcatenation
// ============================================================

// DomainSlice places rows Local of a child at global position Start.
type DomainSlice struct {
	Start int
	Local Slice
}

// DomainPart is the share of one child that lives on Domain, with one
// DomainSlice per secondary repetition.
type DomainPart struct {
	Domain string
	Reps   []DomainSlice
}

// DomainConcatenation assembles children that each cover part of a global
// layout. Within every repetition the pieces are ordered by global start.
type DomainConcatenation struct {
	base
	children []Node
	parts    [][]DomainPart
	reps     int
}

// NewDomainConcatenation checks that parts has one entry per child and that
// every part lists exactly reps slices.
func NewDomainConcatenation(children []Node, parts [][]DomainPart, reps int, opts ...Option) (*DomainConcatenation, error) {
	if len(parts) != len(children) {
		return nil, fmt.Errorf("expr: domain concatenation has %d children but %d part lists", len(children), len(parts))
	}
	if reps < 1 {
		return nil, fmt.Errorf("expr: domain concatenation needs at least one repetition, got %d", reps)
	}
	var domains []string
	seen := map[string]bool{}
	owned := make([][]DomainPart, len(parts))
	for i, ps := range parts {
		owned[i] = make([]DomainPart, len(ps))
		for j, p := range ps {
			if len(p.Reps) != reps {
				return nil, fmt.Errorf("expr: domain concatenation child %d part %q has %d slices, want %d", i, p.Domain, len(p.Reps), reps)
			}
			for _, r := range p.Reps {
				if err := r.Local.validate(); err != nil {
					return nil, fmt.Errorf("expr: domain concatenation child %d part %q: %w", i, p.Domain, err)
				}
			}
			owned[i][j] = DomainPart{Domain: p.Domain, Reps: append([]DomainSlice(nil), p.Reps...)}
			if !seen[p.Domain] {
				seen[p.Domain] = true
				domains = append(domains, p.Domain)
			}
		}
	}
	dc := &DomainConcatenation{base: newBase(opts), children: append([]Node(nil), children...), parts: owned, reps: reps}
	if dc.domain == nil {
		dc.domain = domains
	}
	return dc, nil
}

func (dc *DomainConcatenation) Kind() Kind       { return KindDomainConcatenation }
func (dc *DomainConcatenation) Children() []Node { return append([]Node(nil), dc.children...) }
func (dc *DomainConcatenation) Repetitions() int { return dc.reps }

// Parts returns the part list of child i.
func (dc *DomainConcatenation) Parts(i int) []DomainPart { return dc.parts[i] }

func (dc *DomainConcatenation) String() string {
	return dc.label("domain_concat[" + joinNodes(dc.children, "; ") + "]")
}
