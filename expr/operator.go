package expr

import (
	"fmt"

	"github.com/njchilds90/symlower/sx"
)

// ============================================================
// Binary operators
// ============================================================

type BinaryTag int

const (
	BinaryCustom BinaryTag = iota
	BinaryAdd
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryPower
	BinaryOuter
	BinaryMatMul
	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
	BinaryMinimum
	BinaryMaximum
)

// BinaryRule lowers the operator given its lowered operands.
type BinaryRule func(l, r *sx.Matrix) (*sx.Matrix, error)

// BinaryOperator pairs a tag with the rule that lowers it.
type BinaryOperator struct {
	Tag    BinaryTag
	Symbol string
	Rule   BinaryRule
}

// NewBinaryOperator defines a custom operator.
func NewBinaryOperator(symbol string, rule BinaryRule) *BinaryOperator {
	if rule == nil {
		panic("expr: binary operator " + symbol + " without a rule")
	}
	return &BinaryOperator{Tag: BinaryCustom, Symbol: symbol, Rule: rule}
}

func compare(op sx.CmpOp) BinaryRule {
	return func(l, r *sx.Matrix) (*sx.Matrix, error) { return sx.Compare(op, l, r) }
}

var (
	OpAdd          = &BinaryOperator{Tag: BinaryAdd, Symbol: "+", Rule: sx.Plus}
	OpSubtract     = &BinaryOperator{Tag: BinarySubtract, Symbol: "-", Rule: sx.Minus}
	OpMultiply     = &BinaryOperator{Tag: BinaryMultiply, Symbol: "*", Rule: sx.Times}
	OpDivide       = &BinaryOperator{Tag: BinaryDivide, Symbol: "/", Rule: sx.Rdivide}
	OpPower        = &BinaryOperator{Tag: BinaryPower, Symbol: "**", Rule: sx.Power}
	OpMatMul       = &BinaryOperator{Tag: BinaryMatMul, Symbol: "@", Rule: sx.MatMul}
	OpEqual        = &BinaryOperator{Tag: BinaryEqual, Symbol: "==", Rule: compare(sx.Eq)}
	OpNotEqual     = &BinaryOperator{Tag: BinaryNotEqual, Symbol: "!=", Rule: compare(sx.Ne)}
	OpLess         = &BinaryOperator{Tag: BinaryLess, Symbol: "<", Rule: compare(sx.Lt)}
	OpLessEqual    = &BinaryOperator{Tag: BinaryLessEqual, Symbol: "<=", Rule: compare(sx.Le)}
	OpGreater      = &BinaryOperator{Tag: BinaryGreater, Symbol: ">", Rule: compare(sx.Gt)}
	OpGreaterEqual = &BinaryOperator{Tag: BinaryGreaterEqual, Symbol: ">=", Rule: compare(sx.Ge)}
	OpMinimum      = &BinaryOperator{Tag: BinaryMinimum, Symbol: "minimum", Rule: sx.Fmin}
	OpMaximum      = &BinaryOperator{Tag: BinaryMaximum, Symbol: "maximum", Rule: sx.Fmax}
	OpOuter        = &BinaryOperator{Tag: BinaryOuter, Symbol: "outer", Rule: kron}
)

func kron(l, r *sx.Matrix) (*sx.Matrix, error) { return sx.Kron(l, r), nil }

// Binary applies a binary operator to two children.
type Binary struct {
	base
	op          *BinaryOperator
	left, right Node
}

func NewBinary(op *BinaryOperator, left, right Node, opts ...Option) *Binary {
	return &Binary{base: newBase(opts), op: op, left: left, right: right}
}

func Add(l, r Node) *Binary     { return NewBinary(OpAdd, l, r) }
func Sub(l, r Node) *Binary     { return NewBinary(OpSubtract, l, r) }
func Mul(l, r Node) *Binary     { return NewBinary(OpMultiply, l, r) }
func Div(l, r Node) *Binary     { return NewBinary(OpDivide, l, r) }
func Pow(l, r Node) *Binary     { return NewBinary(OpPower, l, r) }
func Outer(l, r Node) *Binary   { return NewBinary(OpOuter, l, r) }
func MatMul(l, r Node) *Binary  { return NewBinary(OpMatMul, l, r) }
func Eq(l, r Node) *Binary      { return NewBinary(OpEqual, l, r) }
func Ne(l, r Node) *Binary      { return NewBinary(OpNotEqual, l, r) }
func Lt(l, r Node) *Binary      { return NewBinary(OpLess, l, r) }
func Le(l, r Node) *Binary      { return NewBinary(OpLessEqual, l, r) }
func Gt(l, r Node) *Binary      { return NewBinary(OpGreater, l, r) }
func Ge(l, r Node) *Binary      { return NewBinary(OpGreaterEqual, l, r) }
func Minimum(l, r Node) *Binary { return NewBinary(OpMinimum, l, r) }
func Maximum(l, r Node) *Binary { return NewBinary(OpMaximum, l, r) }

func (b *Binary) Kind() Kind                { return KindBinary }
func (b *Binary) Children() []Node          { return []Node{b.left, b.right} }
func (b *Binary) Operator() *BinaryOperator { return b.op }
func (b *Binary) Left() Node                { return b.left }
func (b *Binary) Right() Node               { return b.right }

func (b *Binary) String() string {
	if b.op.Tag == BinaryMinimum || b.op.Tag == BinaryMaximum || b.op.Tag == BinaryOuter {
		return b.label(fmt.Sprintf("%s(%s, %s)", b.op.Symbol, b.left, b.right))
	}
	return b.label(fmt.Sprintf("(%s %s %s)", b.left, b.op.Symbol, b.right))
}

// ============================================================
// Unary operators
// ============================================================

type UnaryTag int

const (
	UnaryCustom UnaryTag = iota
	UnaryNegate
	UnaryAbs
	UnaryTranspose
	UnarySum
	UnarySign
	UnaryFloor
	UnaryCeil
	UnaryIndex
)

// UnaryRule lowers the operator given its lowered operand.
type UnaryRule func(m *sx.Matrix) (*sx.Matrix, error)

// UnaryOperator pairs a tag with the rule that lowers it. Index operators
// carry the selected rows in Slice.
type UnaryOperator struct {
	Tag    UnaryTag
	Symbol string
	Rule   UnaryRule
	Slice  Slice
}

// NewUnaryOperator defines a custom operator.
func NewUnaryOperator(symbol string, rule UnaryRule) *UnaryOperator {
	if rule == nil {
		panic("expr: unary operator " + symbol + " without a rule")
	}
	return &UnaryOperator{Tag: UnaryCustom, Symbol: symbol, Rule: rule}
}

func total(f func(*sx.Matrix) *sx.Matrix) UnaryRule {
	return func(m *sx.Matrix) (*sx.Matrix, error) { return f(m), nil }
}

func mapping(f func(sx.Expr) sx.Expr) UnaryRule {
	return func(m *sx.Matrix) (*sx.Matrix, error) { return sx.Map(m, f), nil }
}

var (
	OpNegate    = &UnaryOperator{Tag: UnaryNegate, Symbol: "-", Rule: total(sx.Neg)}
	OpAbs       = &UnaryOperator{Tag: UnaryAbs, Symbol: "abs", Rule: total(sx.Fabs)}
	OpTranspose = &UnaryOperator{Tag: UnaryTranspose, Symbol: "transpose", Rule: total(sx.Transpose)}
	OpSum       = &UnaryOperator{Tag: UnarySum, Symbol: "sum", Rule: total(sx.Sum)}
	OpSign      = &UnaryOperator{Tag: UnarySign, Symbol: "sign", Rule: mapping(sx.SignOf)}
	OpFloor     = &UnaryOperator{Tag: UnaryFloor, Symbol: "floor", Rule: mapping(sx.FloorOf)}
	OpCeil      = &UnaryOperator{Tag: UnaryCeil, Symbol: "ceil", Rule: mapping(sx.CeilOf)}
)

// IndexOperator selects rows [s.Start, s.Stop) of its operand.
func IndexOperator(s Slice) *UnaryOperator {
	if err := s.validate(); err != nil {
		panic(err.Error())
	}
	return &UnaryOperator{
		Tag:    UnaryIndex,
		Symbol: "index",
		Slice:  s,
		Rule:   func(m *sx.Matrix) (*sx.Matrix, error) { return m.Slice(s.Start, s.Stop) },
	}
}

// Unary applies a unary operator to one child.
type Unary struct {
	base
	op    *UnaryOperator
	child Node
}

func NewUnary(op *UnaryOperator, child Node, opts ...Option) *Unary {
	return &Unary{base: newBase(opts), op: op, child: child}
}

func Neg(c Node) *Unary       { return NewUnary(OpNegate, c) }
func Abs(c Node) *Unary       { return NewUnary(OpAbs, c) }
func Transpose(c Node) *Unary { return NewUnary(OpTranspose, c) }
func Sum(c Node) *Unary       { return NewUnary(OpSum, c) }
func Sign(c Node) *Unary      { return NewUnary(OpSign, c) }
func Floor(c Node) *Unary     { return NewUnary(OpFloor, c) }
func Ceil(c Node) *Unary      { return NewUnary(OpCeil, c) }

// Index selects rows [start, stop) of c.
func Index(c Node, start, stop int) *Unary {
	return NewUnary(IndexOperator(NewSlice(start, stop)), c)
}

func (u *Unary) Kind() Kind               { return KindUnary }
func (u *Unary) Children() []Node         { return []Node{u.child} }
func (u *Unary) Operator() *UnaryOperator { return u.op }
func (u *Unary) Child() Node              { return u.child }

func (u *Unary) String() string {
	switch u.op.Tag {
	case UnaryNegate:
		return u.label("-" + u.child.String())
	case UnaryIndex:
		return u.label(fmt.Sprintf("%s[%s]", u.child, u.op.Slice))
	}
	return u.label(fmt.Sprintf("%s(%s)", u.op.Symbol, u.child))
}
