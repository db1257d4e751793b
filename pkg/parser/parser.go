// Package parser implements a precedence-climbing recursive-descent
// parser over the expression grammar, producing a pkg/ast tree.
package parser

import (
	"fmt"
	"strconv"

	"github.com/oisee/veccol/pkg/ast"
	"github.com/oisee/veccol/pkg/lexer"
)

// ParseError reports a syntax error with the byte offset it occurred at.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Message)
}

// Parser consumes a token stream and builds an expression tree.
// Columns referenced by name are assigned dense indices in the order
// first seen, returned alongside the tree as Parse's second result.
type Parser struct {
	toks []lexer.Token
	pos  int

	colIndex map[string]int
	colOrder []string
}

// Parse parses a complete expression string.
func Parse(input string) (ast.Node, []string, error) {
	p := &Parser{
		toks:     lexer.Tokenize(input),
		colIndex: map[string]int{},
	}
	node, err := p.parseTernary()
	if err != nil {
		return nil, nil, err
	}
	if p.cur().Type != lexer.EOF {
		return nil, nil, &ParseError{Pos: p.cur().Pos, Message: "unexpected trailing input: " + p.cur().Lit}
	}
	return node, p.colOrder, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(t lexer.Type) (lexer.Token, error) {
	if p.cur().Type != t {
		return lexer.Token{}, &ParseError{Pos: p.cur().Pos, Message: fmt.Sprintf("expected %s, got %s", t, p.cur().Type)}
	}
	return p.advance(), nil
}

// parseTernary : logicalOr ('?' ternary ':' ternary)?
func (p *Parser) parseTernary() (ast.Node, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.QUESTION {
		return cond, nil
	}
	p.advance()
	trueBr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	falseBr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ast.NewTernary(cond, trueBr, falseBr), nil
}

func (p *Parser) parseLogicalOr() (ast.Node, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.OROR {
		p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.LogicalOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Node, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.ANDAND {
		p.advance()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.LogicalAnd, left, right)
	}
	return left, nil
}

func (p *Parser) parseBitOr() (ast.Node, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.PIPE {
		p.advance()
		right, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.BitOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseBitXor() (ast.Node, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.CARET {
		p.advance()
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.BitXor, left, right)
	}
	return left, nil
}

func (p *Parser) parseBitAnd() (ast.Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.AMP {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.BitAnd, left, right)
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.EQ || p.cur().Type == lexer.NE {
		op := ast.Eq
		if p.cur().Type == lexer.NE {
			op = ast.Ne
		}
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Node, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Op
		switch p.cur().Type {
		case lexer.LT:
			op = ast.Lt
		case lexer.LE:
			op = ast.Le
		case lexer.GT:
			op = ast.Gt
		case lexer.GE:
			op = ast.Ge
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
}

func (p *Parser) parseShift() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.SHL || p.cur().Type == lexer.SHR {
		op := ast.Shl
		if p.cur().Type == lexer.SHR {
			op = ast.Shr
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.PLUS || p.cur().Type == lexer.MINUS {
		op := ast.Add
		if p.cur().Type == lexer.MINUS {
			op = ast.Sub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.Op
		switch p.cur().Type {
		case lexer.STAR:
			op = ast.Mul
		case lexer.SLASH:
			op = ast.Div
		case lexer.PERCENT:
			op = ast.Mod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	switch p.cur().Type {
	case lexer.MINUS:
		p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.Neg, child), nil
	case lexer.NOT:
		p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.LogicalNot, child), nil
	case lexer.TILDE:
		p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.BitNot, child), nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.LPAREN:
		p.advance()
		node, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return node, nil
	case lexer.INT:
		p.advance()
		v, err := strconv.ParseInt(tok.Lit, 10, 32)
		if err != nil {
			return nil, &ParseError{Pos: tok.Pos, Message: "invalid integer literal: " + tok.Lit}
		}
		return ast.NewConstantI32(int32(v)), nil
	case lexer.FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lit, 32)
		if err != nil {
			return nil, &ParseError{Pos: tok.Pos, Message: "invalid float literal: " + tok.Lit}
		}
		return ast.NewConstantF32(float32(v)), nil
	case lexer.IDENT:
		return p.parseIdentOrCall(tok)
	case lexer.RPAREN, lexer.EOF:
		return nil, &ParseError{Pos: tok.Pos, Message: "expected operand"}
	default:
		return nil, &ParseError{Pos: tok.Pos, Message: "unexpected token: " + tok.Lit}
	}
}

// castKeywords are the type names the grammar reserves for the
// postfix cast call T(e); bool is accepted lexically but has no
// column storage kind, matching spec.md's note that representation is
// left to the implementation.
var castKeywords = map[string]ast.DataType{
	"i32": ast.I32, "f32": ast.F32, "bf16": ast.BF16,
}

func (p *Parser) parseIdentOrCall(tok lexer.Token) (ast.Node, error) {
	p.advance()

	if target, ok := castKeywords[tok.Lit]; ok {
		return p.parseCast(tok, target)
	}
	if isReservedTypeKeyword(tok.Lit) {
		return nil, &ParseError{Pos: tok.Pos, Message: "type " + tok.Lit + " has no column storage kind"}
	}

	switch tok.Lit {
	case "fma":
		args, err := p.parseArgs(3)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(ast.Add, ast.NewBinary(ast.Mul, args[0], args[1]), args[2]), nil
	case "min", "max":
		args, err := p.parseArgs(2)
		if err != nil {
			return nil, err
		}
		op := ast.Min
		if tok.Lit == "max" {
			op = ast.Max
		}
		return ast.NewBinary(op, args[0], args[1]), nil
	default:
		return p.columnRef(tok.Lit), nil
	}
}

func (p *Parser) columnRef(name string) ast.Node {
	idx, ok := p.colIndex[name]
	if !ok {
		idx = len(p.colOrder)
		p.colIndex[name] = idx
		p.colOrder = append(p.colOrder, name)
	}
	return ast.NewColumnRef(name, idx)
}

func (p *Parser) parseArgs(n int) ([]ast.Node, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	args := make([]ast.Node, 0, n)
	for i := 0; i < n; i++ {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if i < n-1 {
			if _, err := p.expect(lexer.COMMA); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// parseCast parses the postfix call form T(e) once T has already been
// recognized (and consumed) as a cast keyword.
func (p *Parser) parseCast(typeTok lexer.Token, target ast.DataType) (ast.Node, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	child, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.NewCast(target, child), nil
}

// isReservedTypeKeyword reports whether lit is one of the grammar's
// CAST keywords that the core has no column storage kind for (i8 i16
// i64 u8 u16 u32 u64 f16 f64 bool). The parser rejects them with a
// ParseError as soon as it reads the keyword, before any cast argument:
// this core supports exactly i32/f32/bf16.
func isReservedTypeKeyword(lit string) bool {
	switch lit {
	case "i8", "i16", "i64", "u8", "u16", "u32", "u64", "f16", "f64", "bool":
		return true
	default:
		return false
	}
}
