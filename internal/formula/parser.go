package formula

import "fmt"

type parser struct {
	toks []token
	pos  int
}

// Parse compiles src into an expression. Identifiers are resolved through syms.
func Parse(src string, syms Symbols) (*Expr, error) {
	toks, err := tokenize(src, syms)
	if err != nil {
		return nil, err
	}
	if len(toks) == 1 {
		return nil, &SyntaxError{Pos: 0, Msg: "empty formula"}
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return newExpr(src, root), nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '+' && t.op != '-') {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.op, left: left, right: right}
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '*' && t.op != '/') {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.op, left: left, right: right}
	}
}

// unary := ('-' | '+') unary | primary
func (p *parser) unary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.op == '-' || t.op == '+') {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.op == '+' {
			return x, nil
		}
		return negNode{x: x}, nil
	}
	return p.primary()
}

// primary := number | ident | '(' expr ')'
func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode(t.num), nil
	case tokIdent:
		return identNode(t.text), nil
	case tokOp:
		if t.op == '(' {
			inner, err := p.expr()
			if err != nil {
				return nil, err
			}
			closing := p.next()
			if closing.kind != tokOp || closing.op != ')' {
				return nil, &SyntaxError{Pos: closing.pos, Msg: "missing closing parenthesis"}
			}
			return inner, nil
		}
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected end of formula"}
}
