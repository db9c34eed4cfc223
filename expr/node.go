// Package expr is the source expression graph handed to the lowering engine.
//
// Graphs are built bottom-up by the constructors in this package and never
// mutate afterwards. Every node receives a process-unique ID at construction;
// two nodes are the same node exactly when their IDs match, so reusing a
// node value in several places is what makes a sub-expression shared.
package expr

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Kind names a node variant.
type Kind string

const (
	KindConstant            Kind = "constant"
	KindTime                Kind = "time"
	KindInput               Kind = "input"
	KindStateVector         Kind = "state_vector"
	KindBinary              Kind = "binary"
	KindUnary               Kind = "unary"
	KindFunction            Kind = "function"
	KindConcatenation       Kind = "concatenation"
	KindDomainConcatenation Kind = "domain_concatenation"
	KindParameter           Kind = "parameter"
)

// ID identifies a node for the lifetime of the process.
type ID uint64

var lastID atomic.Uint64

// NewID returns an ID no other call returns. Packages that define their own
// node types use it to satisfy Node.
func NewID() ID { return ID(lastID.Add(1)) }

// Node is a vertex of an expression graph.
type Node interface {
	ID() ID
	Kind() Kind
	Children() []Node
	Domain() []string
	String() string
}

type base struct {
	id     ID
	name   string
	domain []string
}

func newBase(opts []Option) base {
	b := base{id: NewID()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) ID() ID           { return b.id }
func (b *base) Name() string     { return b.name }
func (b *base) Domain() []string { return append([]string(nil), b.domain...) }

func (b *base) label(fallback string) string {
	if b.name != "" {
		return b.name
	}
	return fallback
}

// Option configures a node at construction.
type Option func(*base)

// WithName sets the display name used by String.
func WithName(name string) Option { return func(b *base) { b.name = name } }

// InDomain records the spatial domain a node lives on.
func InDomain(domain ...string) Option {
	return func(b *base) { b.domain = append([]string(nil), domain...) }
}

// Slice is the half-open row range [Start, Stop).
type Slice struct {
	Start, Stop int
}

// NewSlice panics when the range is malformed.
func NewSlice(start, stop int) Slice {
	s := Slice{Start: start, Stop: stop}
	if err := s.validate(); err != nil {
		panic(err.Error())
	}
	return s
}

func (s Slice) Len() int       { return s.Stop - s.Start }
func (s Slice) String() string { return fmt.Sprintf("%d:%d", s.Start, s.Stop) }

func (s Slice) validate() error {
	if s.Start < 0 || s.Stop < s.Start {
		return fmt.Errorf("expr: malformed slice [%d:%d]", s.Start, s.Stop)
	}
	return nil
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}
