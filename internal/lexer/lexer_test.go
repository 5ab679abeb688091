package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
	}
	return toks
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "int x = 0;")
	require.Len(t, toks, 6)
	assert.Equal(t, KW_INT, toks[0].Type)
	assert.Equal(t, IDENT, toks[1].Type)
	assert.Equal(t, "x", toks[1].Lex)
	assert.Equal(t, ASSIGN, toks[2].Type)
	assert.Equal(t, INT_LIT, toks[3].Type)
	assert.Equal(t, SEMI, toks[4].Type)
	assert.Equal(t, EOF, toks[5].Type)
}

func TestLexIntSuffixes(t *testing.T) {
	toks := lexAll(t, "1u 2L 3ul")
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, SuffixU, toks[0].IntSuffix)
	assert.Equal(t, SuffixL, toks[1].IntSuffix)
	assert.Equal(t, SuffixUL, toks[2].IntSuffix)
}

func TestLexMultiCharOperatorsLongestMatch(t *testing.T) {
	toks := lexAll(t, "a <<= b >> c <= d")
	types := []TokenType{IDENT, SHL_EQ, IDENT, SHR, IDENT, LE, IDENT, EOF}
	require.Len(t, toks, len(types))
	for i, want := range types {
		assert.Equal(t, want, toks[i].Type, "token %d", i)
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks := lexAll(t, `"hi\n\t\\\""`)
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, STRING_LIT, toks[0].Type)
	assert.Equal(t, []byte("hi\n\t\\\""), toks[0].StringData)
}

func TestLexCharLiteral(t *testing.T) {
	toks := lexAll(t, `'a' '\0' '\n'`)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, int64('a'), toks[0].CharValue)
	assert.Equal(t, int64(0), toks[1].CharValue)
	assert.Equal(t, int64('\n'), toks[2].CharValue)
}

func TestLexLineColTracking(t *testing.T) {
	toks := lexAll(t, "int a;\nint b;")
	var second Token
	for _, tk := range toks {
		if tk.Type == KW_INT && tk.Line == 2 {
			second = tk
		}
	}
	assert.Equal(t, 2, second.Line)
}

func TestLexIllegalCharacterReturnsError(t *testing.T) {
	l := New("int $x;")
	var lastErr error
	for i := 0; i < 4; i++ {
		_, err := l.Next()
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
}
