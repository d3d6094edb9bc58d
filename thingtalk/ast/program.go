package ast

import (
	"fmt"
	"strings"
)

// Statement is a top-level program element: a class definition, a
// declaration, or a rule.
type Statement interface {
	Node
	isStatement()
}

// ClassDefStatement embeds a class definition directly into a program.
type ClassDefStatement struct{ Class *ClassDef }

func (c *ClassDefStatement) isStatement()  {}
func (c *ClassDefStatement) String() string { return c.Class.String() }

// DeclarationKind distinguishes the four things a Declaration may name.
type DeclarationKind int

const (
	DeclQuery DeclarationKind = iota
	DeclStream
	DeclAction
	DeclProcedure
)

func (k DeclarationKind) String() string {
	switch k {
	case DeclQuery:
		return "query"
	case DeclStream:
		return "stream"
	case DeclAction:
		return "action"
	case DeclProcedure:
		return "procedure"
	default:
		return "?"
	}
}

// Declaration names a reusable query/stream/action/procedure body with
// formal parameters, materialized into a runnable statement by
// thingtalk/transform when instantiated.
type Declaration struct {
	Name   string
	Kind   DeclarationKind
	Params []FunctionArgument
	Body   Expression // nil for a procedure, whose body is Statements
	Stmts  []Statement
}

func (d *Declaration) isStatement() {}
func (d *Declaration) String() string {
	var params []string
	for _, p := range d.Params {
		params = append(params, p.String())
	}
	head := fmt.Sprintf("%s %s(%s) := ", d.Kind, d.Name, strings.Join(params, ", "))
	if d.Body != nil {
		return head + d.Body.String() + ";"
	}
	var parts []string
	for _, s := range d.Stmts {
		parts = append(parts, s.String())
	}
	return head + "{ " + strings.Join(parts, " ") + " }"
}

// HeadKind distinguishes the four rule trigger shapes.
type HeadKind int

const (
	HeadMonitor HeadKind = iota
	HeadTimer
	HeadAtTimer
	HeadNow
)

func (k HeadKind) String() string {
	switch k {
	case HeadMonitor:
		return "monitor"
	case HeadTimer:
		return "timer"
	case HeadAtTimer:
		return "at_timer"
	case HeadNow:
		return "now"
	default:
		return "?"
	}
}

// Rule is "(trigger | now) => (query*) => action".
type Rule struct {
	Head     HeadKind
	Trigger  Expression   // nil when Head == HeadNow
	Queries  []Expression // zero or more query stages
	Action   Expression   // nil means "=> notify"
	Executor Value        // non-nil marks the rule as remote-dispatched
}

func (r *Rule) isStatement() {}
func (r *Rule) String() string {
	var b strings.Builder
	if r.Executor != nil {
		fmt.Fprintf(&b, "executor = %s : ", r.Executor)
	}
	if r.Head == HeadNow {
		b.WriteString("now")
	} else {
		b.WriteString(r.Trigger.String())
	}
	for _, q := range r.Queries {
		b.WriteString(" => ")
		b.WriteString(q.String())
	}
	b.WriteString(" => ")
	if r.Action == nil {
		b.WriteString("notify")
	} else {
		b.WriteString(r.Action.String())
	}
	return b.String()
}

// Program is an ordered list of top-level statements.
type Program struct {
	Statements []Statement
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String() + ";"
	}
	return strings.Join(parts, "\n")
}
