package ast

import "strings"

// PrettyPrint renders p in the canonical multi-statement surface form:
// one statement per line, each terminated with a semicolon. Every
// Expression/Filter/Value already renders itself canonically through
// String() (defined alongside each type); PrettyPrint only adds the
// statement-level layout a whole program needs. Re-lexing and
// re-parsing PrettyPrint(p) must yield a program structurally equal to
// p — no information is dropped in String() that a parser would need
// to recover it.
func PrettyPrint(p *Program) string {
	var b strings.Builder
	for _, s := range p.Statements {
		b.WriteString(s.String())
		b.WriteString(";\n")
	}
	return b.String()
}

// PrettyPrintIndented is PrettyPrint with each class definition's body
// re-flowed onto its own indented lines, the layout ThingPedia consoles
// use when showing a class back to a developer. Indent is the per-level
// indentation string (e.g. "  " or "\t").
func PrettyPrintIndented(p *Program, indent string) string {
	var b strings.Builder
	for _, s := range p.Statements {
		switch n := s.(type) {
		case *ClassDefStatement:
			writeClassIndented(&b, n.Class, indent)
		default:
			b.WriteString(s.String())
			b.WriteString(";\n")
		}
	}
	return b.String()
}

func writeClassIndented(b *strings.Builder, c *ClassDef, indent string) {
	b.WriteString("class @" + c.Kind)
	if len(c.Extends) > 0 {
		b.WriteString(" extends " + strings.Join(c.Extends, ", "))
	}
	b.WriteString(" {\n")
	for _, table := range []map[string]*FunctionDef{c.Queries, c.Actions, c.Streams} {
		for _, name := range sortedNames(table) {
			b.WriteString(indent + table[name].String() + ";\n")
		}
	}
	b.WriteString("}\n")
}
