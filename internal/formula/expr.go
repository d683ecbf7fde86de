package formula

import (
	"errors"
	"strconv"
	"strings"
)

// ErrDivisionByZero is returned by Eval when a divisor evaluates to zero.
var ErrDivisionByZero = errors.New("division by zero")

// Binder supplies identifier values during evaluation.
type Binder func(ident string) (float64, error)

// Expr is a compiled formula.
type Expr struct {
	src    string
	root   node
	idents []string
}

func newExpr(src string, root node) *Expr {
	e := &Expr{src: src, root: root}
	seen := map[string]struct{}{}
	root.walk(func(n node) {
		if id, ok := n.(identNode); ok {
			if _, dup := seen[string(id)]; !dup {
				seen[string(id)] = struct{}{}
				e.idents = append(e.idents, string(id))
			}
		}
	})
	return e
}

// Source returns the text the expression was parsed from.
func (e *Expr) Source() string {
	return e.src
}

// Idents returns the distinct identifiers in order of first appearance.
func (e *Expr) Idents() []string {
	out := make([]string, len(e.idents))
	copy(out, e.idents)
	return out
}

// Eval evaluates the expression, calling bind once per identifier occurrence.
func (e *Expr) Eval(bind Binder) (float64, error) {
	return e.root.eval(bind)
}

// String renders the expression fully parenthesised.
func (e *Expr) String() string {
	var b strings.Builder
	e.root.write(&b)
	return b.String()
}

type node interface {
	eval(bind Binder) (float64, error)
	walk(fn func(node))
	write(b *strings.Builder)
}

type numberNode float64

func (n numberNode) eval(Binder) (float64, error) { return float64(n), nil }
func (n numberNode) walk(fn func(node))            { fn(n) }
func (n numberNode) write(b *strings.Builder) {
	b.WriteString(strconv.FormatFloat(float64(n), 'g', -1, 64))
}

type identNode string

func (n identNode) eval(bind Binder) (float64, error) { return bind(string(n)) }
func (n identNode) walk(fn func(node))                { fn(n) }
func (n identNode) write(b *strings.Builder) {
	b.WriteByte('[')
	b.WriteString(string(n))
	b.WriteByte(']')
}

type negNode struct {
	x node
}

func (n negNode) eval(bind Binder) (float64, error) {
	v, err := n.x.eval(bind)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n negNode) walk(fn func(node)) {
	fn(n)
	n.x.walk(fn)
}

func (n negNode) write(b *strings.Builder) {
	b.WriteString("(-")
	n.x.write(b)
	b.WriteByte(')')
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(bind Binder) (float64, error) {
	l, err := n.left.eval(bind)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(bind)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
}

func (n binaryNode) walk(fn func(node)) {
	fn(n)
	n.left.walk(fn)
	n.right.walk(fn)
}

func (n binaryNode) write(b *strings.Builder) {
	b.WriteByte('(')
	n.left.write(b)
	b.WriteByte(' ')
	b.WriteByte(n.op)
	b.WriteByte(' ')
	n.right.write(b)
	b.WriteByte(')')
}
