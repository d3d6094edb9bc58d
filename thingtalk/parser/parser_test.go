package parser

import (
	"testing"

	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(text string, index int) lexer.Token {
	return lexer.Token{Type: lexer.WORD, Raw: text, Text: text, Index: index}
}

func functionRef(kind, channel string, index int) lexer.Token {
	return lexer.Token{Type: lexer.FunctionRef, Raw: "@" + kind + "." + channel, Kind: kind, Channel: channel, Index: index}
}

func intLit(v int64, index int) lexer.Token {
	return lexer.Token{Type: lexer.LiteralInteger, Raw: "42", IntValue: v, Index: index}
}

func eof(index int) lexer.Token {
	return lexer.Token{Type: lexer.EOF, Index: index}
}

func TestParseNowNotify(t *testing.T) {
	toks := []lexer.Token{
		word("now", 0),
		word("=>", 1),
		word("notify", 2),
		eof(3),
	}

	prog, err := NewParser().Parse(toks)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)

	rule, ok := prog.Statements[0].(*ast.Rule)
	require.True(t, ok)
	assert.Equal(t, ast.HeadNow, rule.Head)
	assert.Nil(t, rule.Trigger)
	assert.Nil(t, rule.Action)
}

func TestParseNowInvocationWithArg(t *testing.T) {
	toks := []lexer.Token{
		word("now", 0),
		word("=>", 1),
		functionRef("com.weather", "current", 2),
		word("(", 3),
		word("temperature", 4),
		word("=", 5),
		intLit(42, 6),
		word(")", 7),
		eof(8),
	}

	prog, err := NewParser().Parse(toks)
	require.NoError(t, err)

	rule, ok := prog.Statements[0].(*ast.Rule)
	require.True(t, ok)
	assert.Equal(t, ast.HeadNow, rule.Head)

	inv, ok := rule.Action.(*ast.Invocation)
	require.True(t, ok)
	assert.Equal(t, "com.weather", inv.Selector.Kind)
	assert.Equal(t, "current", inv.Channel)
	require.Contains(t, inv.InArgs, "temperature")
}

func TestParseMonitorNotify(t *testing.T) {
	toks := []lexer.Token{
		word("monitor", 0),
		word("(", 1),
		functionRef("com.weather", "current", 2),
		word("(", 3),
		word(")", 4),
		word(")", 5),
		word("=>", 6),
		word("notify", 7),
		eof(8),
	}

	prog, err := NewParser().Parse(toks)
	require.NoError(t, err)

	rule, ok := prog.Statements[0].(*ast.Rule)
	require.True(t, ok)
	assert.Equal(t, ast.HeadMonitor, rule.Head)

	mon, ok := rule.Trigger.(*ast.Monitor)
	require.True(t, ok)
	inv, ok := mon.Table.(*ast.Invocation)
	require.True(t, ok)
	assert.Equal(t, "com.weather", inv.Selector.Kind)
	assert.Equal(t, "current", inv.Channel)
	assert.Nil(t, rule.Action)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	// "now notify" with the arrow omitted.
	toks := []lexer.Token{
		word("now", 0),
		word("notify", 1),
		eof(2),
	}

	_, err := NewParser().Parse(toks)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Index)
}

func TestParseRejectsUnclassifiableToken(t *testing.T) {
	toks := []lexer.Token{
		{Type: lexer.LiteralTime, Index: 0},
	}
	_, err := NewParser().Parse(toks)
	assert.Error(t, err)
}

func TestSerializeRoundTripsNowNotify(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{&ast.Rule{Head: ast.HeadNow}}}
	toks, err := Serialize(prog, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"now", "=>", "notify"}, toks)
}

func TestSerializeRoundTripsParsedInvocation(t *testing.T) {
	toks := []lexer.Token{
		word("now", 0),
		word("=>", 1),
		functionRef("com.weather", "current", 2),
		word("(", 3),
		word("temperature", 4),
		word("=", 5),
		intLit(42, 6),
		word(")", 7),
		eof(8),
	}
	prog, err := NewParser().Parse(toks)
	require.NoError(t, err)

	out, err := Serialize(prog, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"now", "=>", "@com.weather.current", "(",
		"temperature", "=", "42", "^^Number", ")",
	}, out)
}

func TestClassifyAppendsEndSentinel(t *testing.T) {
	terms, err := Classify([]lexer.Token{word("now", 0)})
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, TermEnd, terms[1].term)
}
