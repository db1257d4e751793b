package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// printer renders a Node back to the surface grammar so that
// parse(PrettyPrint(ast)) produces an equivalent tree.
type printer struct {
	sb strings.Builder
}

// PrettyPrint renders n as a parseable expression string.
func PrettyPrint(n Node) string {
	p := &printer{}
	n.Accept(p)
	return p.sb.String()
}

func (p *printer) VisitColumnRef(n *ColumnRef) {
	p.sb.WriteString(n.Name)
}

func (p *printer) VisitConstant(n *Constant) {
	switch n.meta.ResultType {
	case F32:
		p.sb.WriteString(formatFloatLiteral(n.F32))
	case Bool:
		p.sb.WriteString(strconv.FormatBool(n.Bool))
	default:
		p.sb.WriteString(strconv.FormatInt(int64(n.I32), 10))
	}
}

// formatFloatLiteral renders v so the grammar's NUMBER rule reads it
// back as a FLOAT, not an INT: a '.' is what forces the float lexer
// branch, so a whole-number value like 5 (which strconv would
// otherwise render as "5") needs an explicit ".0" appended. Values are
// written in plain decimal, since NUMBER has no exponent form. NaN and
// the infinities have no literal form in the grammar at all.
func formatFloatLiteral(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (p *printer) VisitUnary(n *Unary) {
	p.sb.WriteString(n.Op.String())
	p.sb.WriteString("(")
	n.Child.Accept(p)
	p.sb.WriteString(")")
}

func (p *printer) VisitBinary(n *Binary) {
	if n.Op == Min || n.Op == Max {
		p.sb.WriteString(n.Op.String())
		p.sb.WriteString("(")
		n.Left.Accept(p)
		p.sb.WriteString(", ")
		n.Right.Accept(p)
		p.sb.WriteString(")")
		return
	}
	p.sb.WriteString("(")
	n.Left.Accept(p)
	fmt.Fprintf(&p.sb, " %s ", n.Op)
	n.Right.Accept(p)
	p.sb.WriteString(")")
}

func (p *printer) VisitTernary(n *Ternary) {
	p.sb.WriteString("(")
	n.Cond.Accept(p)
	p.sb.WriteString(" ? ")
	n.TrueBranch.Accept(p)
	p.sb.WriteString(" : ")
	n.FalseBranch.Accept(p)
	p.sb.WriteString(")")
}

func (p *printer) VisitCast(n *Cast) {
	fmt.Fprintf(&p.sb, "%s(", n.Target)
	n.Child.Accept(p)
	p.sb.WriteString(")")
}
