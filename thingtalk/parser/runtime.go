package parser

import (
	"fmt"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/lexer"
)

// ParseError reports a failure at a specific input position rather than
// as a bare string, so callers building an editor integration can
// underline the offending token.
type ParseError struct {
	Index   int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at token %d: %s", e.Index, e.Message)
}

// triggerValue, actionValue and argValue are the intermediate reduce
// results for the grammar's three non-Invocation nonterminals; they
// don't correspond to any single ast type, so they stay internal to the
// runtime rather than leaking into thingtalk/ast.
type triggerValue struct {
	head ast.HeadKind
	expr ast.Expression // nil when head == ast.HeadNow
}

type actionValue struct {
	isNotify bool
	expr     ast.Expression // nil when isNotify
}

type argValue struct {
	name  string
	value ast.Value
}

// stackSlot is the tagged union of everything the value stack can hold:
// a raw terminal's token, or one of the four reduce results above.
type stackSlot struct {
	tok         lexer.Token
	hasTok      bool
	trigger     triggerValue
	action      actionValue
	invocation  *ast.Invocation
	arg         argValue
}

// Parser runs the table-driven shift-reduce loop over a classified
// terminal stream. Each call to Parse owns its own stacks; like
// thingtalk/lexer.Lexer, a Parser is never shared across concurrent
// parses.
type Parser struct {
	states []int
	values []stackSlot
}

// NewParser returns a parser ready to consume a fresh token stream.
func NewParser() *Parser {
	return &Parser{states: []int{0}}
}

// Parse runs tok through the classified terminals and the ACTION/GOTO
// tables, applying a semantic action on every reduce, until it accepts
// or hits an error() condition.
func (p *Parser) Parse(tokens []lexer.Token) (*ast.Program, error) {
	terms, err := Classify(tokens)
	if err != nil {
		return nil, err
	}
	p.states = []int{0}
	p.values = nil

	i := 0
	for {
		cur := terms[i]
		state := p.states[len(p.states)-1]

		if acts, ok := actionTable[state]; ok {
			if a, ok := acts[cur.term]; ok {
				switch a.kind {
				case actShift:
					p.states = append(p.states, a.state)
					p.values = append(p.values, stackSlot{tok: cur.tok, hasTok: true})
					i++
					continue
				case actAccept:
					return p.finish()
				}
			}
		}

		if rule, ok := soleReduceRule[state]; ok {
			if err := p.reduce(rule); err != nil {
				return nil, err
			}
			continue
		}

		return nil, p.error(cur, state)
	}
}

func (p *Parser) error(cur classifiedTerminal, state int) *ParseError {
	return &ParseError{
		Index:   cur.tok.Index,
		Message: fmt.Sprintf("unexpected %s in state %d", cur.term, state),
	}
}

// reduce pops ruleArity[rule] symbols, runs the rule's semantic action,
// and pushes the result, transitioning via gotoTable on the state the
// pop reveals.
func (p *Parser) reduce(rule int) error {
	arity := ruleArity[rule]
	popped := p.values[len(p.values)-arity:]
	p.states = p.states[:len(p.states)-arity]
	p.values = p.values[:len(p.values)-arity]

	result, err := p.apply(rule, popped)
	if err != nil {
		return err
	}

	nt := ruleNonterminal[rule]
	from := p.states[len(p.states)-1]
	next, ok := gotoTable[from][nt]
	if !ok {
		return &ParseError{Message: fmt.Sprintf("no GOTO for state %d on nonterminal after rule %d", from, rule)}
	}
	p.states = append(p.states, next)
	p.values = append(p.values, result)
	return nil
}

func (p *Parser) apply(rule int, popped []stackSlot) (stackSlot, error) {
	switch rule {
	case 1: // Rule -> Trigger ARROW Action
		return stackSlot{trigger: popped[0].trigger, action: popped[2].action}, nil
	case 2: // Trigger -> NOW
		return stackSlot{trigger: triggerValue{head: ast.HeadNow}}, nil
	case 3: // Trigger -> MONITOR ( Invocation )
		inv := popped[2].invocation
		return stackSlot{trigger: triggerValue{head: ast.HeadMonitor, expr: &ast.Monitor{Table: inv}}}, nil
	case 4: // Action -> NOTIFY
		return stackSlot{action: actionValue{isNotify: true}}, nil
	case 5: // Action -> Invocation
		return stackSlot{action: actionValue{expr: popped[0].invocation}}, nil
	case 6: // Invocation -> NAME ( )
		inv, err := invocationFromName(popped[0].tok)
		if err != nil {
			return stackSlot{}, err
		}
		return stackSlot{invocation: inv}, nil
	case 7: // Invocation -> NAME ( Arg )
		inv, err := invocationFromName(popped[0].tok)
		if err != nil {
			return stackSlot{}, err
		}
		inv.InArgs[popped[2].arg.name] = popped[2].arg.value
		return stackSlot{invocation: inv}, nil
	case 8: // Arg -> NAME = NUM
		name := popped[0].tok.Text
		if name == "" {
			name = popped[0].tok.Raw
		}
		num, err := numberValue(popped[2].tok)
		if err != nil {
			return stackSlot{}, err
		}
		return stackSlot{arg: argValue{name: name, value: num}}, nil
	default:
		return stackSlot{}, fmt.Errorf("no semantic action registered for rule %d", rule)
	}
}

func invocationFromName(tok lexer.Token) (*ast.Invocation, error) {
	if tok.Type != lexer.FunctionRef {
		return nil, &ParseError{Index: tok.Index, Message: "expected a function reference (@kind.channel)"}
	}
	return ast.NewInvocation(ast.Selector{Kind: tok.Kind}, tok.Channel, map[string]ast.Value{}), nil
}

func numberValue(tok lexer.Token) (ast.Value, error) {
	switch tok.Type {
	case lexer.LiteralInteger:
		return thingtalk.NumberValue{Value: float64(tok.IntValue)}, nil
	default:
		return nil, &ParseError{Index: tok.Index, Message: "expected a numeric literal"}
	}
}

// finish pops the single remaining value (the reduced Rule) and wraps
// it in a one-statement Program.
func (p *Parser) finish() (*ast.Program, error) {
	if len(p.values) != 1 {
		return nil, fmt.Errorf("internal error: expected exactly one value on accept, got %d", len(p.values))
	}
	top := p.values[0]
	rule := &ast.Rule{Head: top.trigger.head, Trigger: top.trigger.expr}
	if !top.action.isNotify {
		rule.Action = top.action.expr
	}
	return &ast.Program{Statements: []ast.Statement{rule}}, nil
}
