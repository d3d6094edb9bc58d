// Package parser implements an LR shift-reduce parser runtime over the
// classified token stream thingtalk/lexer produces. The runtime's loop
// (runtime.go) is table-driven; its semantic actions are written
// against the rule numbers of grammar.go, which wires up hand-derived
// ACTION/GOTO/ARITY/RULE_NONTERMINAL tables for the core
// "trigger => action" rule shape (now/monitor triggers,
// notify/invocation actions). These are the only tables in the package.
// The runtime keeps two parallel stacks, does a table lookup per token,
// and builds AST nodes in semantic actions on reduce.
package parser

import (
	"fmt"

	"github.com/stanford-oval/thingtalk-go/thingtalk/lexer"
)

// Terminal is one of the parser's input symbols, distinct from
// lexer.TokenType: several lexer token shapes (WORD carrying different
// keyword text) collapse onto distinct Terminals, and punctuation that
// the lexer leaves as plain WORD tokens becomes its own Terminal here.
type Terminal int

const (
	TermEnd Terminal = iota
	TermNow
	TermMonitor
	TermNotify
	TermArrow
	TermLParen
	TermRParen
	TermEq
	TermName
	TermNum
)

func (t Terminal) String() string {
	switch t {
	case TermEnd:
		return "$end"
	case TermNow:
		return "now"
	case TermMonitor:
		return "monitor"
	case TermNotify:
		return "notify"
	case TermArrow:
		return "=>"
	case TermLParen:
		return "("
	case TermRParen:
		return ")"
	case TermEq:
		return "="
	case TermName:
		return "NAME"
	case TermNum:
		return "NUM"
	default:
		return "?"
	}
}

// classifiedTerminal pairs a Terminal with the lexer.Token it came
// from, so a reduce action can recover the original text/value.
type classifiedTerminal struct {
	term Terminal
	tok  lexer.Token
}

// Classify maps a classified lexer token stream onto parser Terminals.
// Surface punctuation ("(", ")", "=", "=>") and the now/monitor/notify
// keywords all arrive as plain WORD tokens from the lexer, since none
// of them match a special prefix; this function is where they become
// distinct grammar symbols.
func Classify(tokens []lexer.Token) ([]classifiedTerminal, error) {
	out := make([]classifiedTerminal, 0, len(tokens)+1)
	for _, tok := range tokens {
		term, err := terminalFor(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, classifiedTerminal{term: term, tok: tok})
	}
	out = append(out, classifiedTerminal{term: TermEnd})
	return out, nil
}

func terminalFor(tok lexer.Token) (Terminal, error) {
	switch tok.Type {
	case lexer.FunctionRef:
		return TermName, nil
	case lexer.LiteralInteger:
		return TermNum, nil
	case lexer.WORD:
		switch tok.Text {
		case "now":
			return TermNow, nil
		case "monitor":
			return TermMonitor, nil
		case "notify":
			return TermNotify, nil
		case "=>":
			return TermArrow, nil
		case "(":
			return TermLParen, nil
		case ")":
			return TermRParen, nil
		case "=":
			return TermEq, nil
		default:
			return TermName, nil
		}
	case lexer.EOF:
		return TermEnd, nil
	default:
		return 0, fmt.Errorf("token %s has no parser terminal in this grammar", tok)
	}
}
