package lexer

import "testing"

func TestTokenizeSimpleExpression(t *testing.T) {
	toks := Tokenize("a + b * 2")
	want := []Type{IDENT, PLUS, IDENT, STAR, INT, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	cases := []struct {
		input string
		want  Type
	}{
		{"&&", ANDAND}, {"||", OROR}, {"==", EQ}, {"!=", NE},
		{"<=", LE}, {">=", GE}, {"<<", SHL}, {">>", SHR},
	}
	for _, c := range cases {
		toks := Tokenize(c.input)
		if toks[0].Type != c.want {
			t.Errorf("Tokenize(%q)[0] = %v, want %v", c.input, toks[0].Type, c.want)
		}
	}
}

func TestTokenizeFloatLiteral(t *testing.T) {
	toks := Tokenize("3.14")
	if toks[0].Type != FLOAT || toks[0].Lit != "3.14" {
		t.Errorf("got %v %q, want FLOAT 3.14", toks[0].Type, toks[0].Lit)
	}
}

func TestTokenizeTernaryAndCast(t *testing.T) {
	toks := Tokenize("a ? f32(b) : c")
	wantTypes := []Type{IDENT, QUESTION, IDENT, LPAREN, IDENT, RPAREN, COLON, IDENT, EOF}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(wantTypes))
	}
	for i, w := range wantTypes {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}
