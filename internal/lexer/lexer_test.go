package lexer

import (
	"testing"

	"github.com/emberlang/ember/internal/token"
	"github.com/stretchr/testify/require"
)

func TestNextToken_Operators(t *testing.T) {
	src := `(){}?,.-+;/*%!!= = ==<<=>>=`
	want := []token.Type{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.QUESTION, token.COMMA, token.DOT, token.MINUS, token.PLUS,
		token.SEMICOLON, token.SLASH, token.STAR, token.PERCENT,
		token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
		token.EOF,
	}

	l := New(src)
	for i, wt := range want {
		tok := l.NextToken()
		require.Equalf(t, wt, tok.Type, "token %d: got %s", i, tok.Type)
	}
}

func TestNextToken_KeywordsAndIdentifiers(t *testing.T) {
	src := `class super this var fun if else for while and or nil true false print return continue switch case default notakeyword`
	want := []token.Type{
		token.CLASS, token.SUPER, token.THIS, token.VAR, token.FUN, token.IF, token.ELSE,
		token.FOR, token.WHILE, token.AND, token.OR, token.NIL, token.TRUE, token.FALSE,
		token.PRINT, token.RETURN, token.CONTINUE, token.SWITCH, token.CASE, token.DEFAULT,
		token.IDENTIFIER, token.EOF,
	}

	l := New(src)
	for i, wt := range want {
		tok := l.NextToken()
		require.Equalf(t, wt, tok.Type, "token %d: got %s (%q)", i, tok.Type, tok.Lexeme)
	}
}

func TestNextToken_NumbersAndStrings(t *testing.T) {
	l := New(`123 3.14 "hello world"`)

	tok := l.NextToken()
	require.Equal(t, token.NUMBER, tok.Type)
	require.Equal(t, "123", tok.Lexeme)

	tok = l.NextToken()
	require.Equal(t, token.NUMBER, tok.Type)
	require.Equal(t, "3.14", tok.Lexeme)

	tok = l.NextToken()
	require.Equal(t, token.STRING, tok.Type)
	require.Equal(t, `"hello world"`, tok.Lexeme)
}

func TestNextToken_LineTracking(t *testing.T) {
	l := New("var a = 1;\nvar b = 2;")
	var lastLine int
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		lastLine = tok.Line
	}
	require.Equal(t, 2, lastLine)
}

func TestNextToken_CommentsSkipped(t *testing.T) {
	l := New("// a comment\nvar")
	tok := l.NextToken()
	require.Equal(t, token.VAR, tok.Type)
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := New(`"unterminated`)
	tok := l.NextToken()
	require.Equal(t, token.ERROR, tok.Type)
}
