// Package ast defines the immutable, richly-typed syntax tree for
// ThingTalk programs: classes and
// function signatures, the expression/filter algebra, values-in-context
// (selectors, invocations), and whole programs. Every node implements
// the shared Node interface and participates in the three traversal
// protocols — Visit, IterateSlots and Clone — through small, composable
// per-node methods instead of a single god object.
//
// File organization:
//   - node.go: the Node interface and the Visit pre-order-walk protocol
//   - function.go: FunctionDef, FunctionArgument, ClassDef, Selector
//   - expression.go: the query/stream/action expression algebra
//   - filter.go: the boolean filter algebra
//   - program.go: Program, statements (class def, declaration, rule)
//   - slots.go: IterateSlots, the lazy (holder, slot, type, scope) walk
//   - clone.go: deep structural Clone
//   - pretty.go: canonical pretty-printing (parse(pp(p)) == p)
package ast
