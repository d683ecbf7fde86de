package formula

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64
	op   byte
}

// SyntaxError reports malformed formula text.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// tokenize splits src into tokens. At each position, after whitespace, the
// longest known identifier wins, then a number literal, then an operator. An
// identifier ending in a letter or digit must not be followed by another
// identifier character.
func tokenize(src string, syms Symbols) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := src[i]
		if isSpace(c) {
			i++
			continue
		}
		if name, n := matchIdent(src, i, syms); n > 0 {
			out = append(out, token{kind: tokIdent, pos: i, text: name})
			i += n
			continue
		}
		if isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])) {
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			v, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("bad number %q", src[start:i])}
			}
			if i < len(src) && isIdentChar(src[i]) {
				return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unknown stat %q", src[start:identEnd(src, start)])}
			}
			out = append(out, token{kind: tokNumber, pos: start, text: src[start:i], num: v})
			continue
		}
		switch c {
		case '+', '-', '*', '/', '(', ')':
			out = append(out, token{kind: tokOp, pos: i, text: string(c), op: c})
			i++
			continue
		}
		return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unknown stat %q", src[i:identEnd(src, i)])}
	}
	out = append(out, token{kind: tokEOF, pos: len(src)})
	return out, nil
}

func matchIdent(src string, start int, syms Symbols) (string, int) {
	if syms == nil {
		return "", 0
	}
	n := syms.MaxLen()
	if rest := len(src) - start; n > rest {
		n = rest
	}
	for ; n > 0; n-- {
		name, ok := syms.Lookup(src[start : start+n])
		if !ok {
			continue
		}
		end := start + n
		if isAlnum(src[end-1]) && end < len(src) && isIdentChar(src[end]) {
			continue
		}
		return name, n
	}
	return "", 0
}

// identEnd returns the end of the word starting at i, for error messages.
func identEnd(src string, i int) int {
	j := i
	for j < len(src) && !isSpace(src[j]) && !isOpChar(src[j]) {
		j++
	}
	if j == i {
		j = i + 1
	}
	return j
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isAlnum(c) || c == '_' || c == '~'
}

func isOpChar(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '(', ')':
		return true
	}
	return false
}
