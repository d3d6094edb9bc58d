package parser

// Nonterminal is one of the grammar's left-hand-side symbols.
type Nonterminal int

const (
	NTTrigger Nonterminal = iota
	NTAction
	NTInvocation
	NTArg
	ntAccept // internal: the augmented start production's LHS
)

// Grammar, in order (rule 0 is the augmented start production and is
// never reduced; acceptance happens via the GOTO on Rule to ntAccept):
//
//	0: S' -> Rule
//	1: Rule -> Trigger ARROW Action
//	2: Trigger -> NOW
//	3: Trigger -> MONITOR ( Invocation )
//	4: Action -> NOTIFY
//	5: Action -> Invocation
//	6: Invocation -> NAME ( )
//	7: Invocation -> NAME ( Arg )
//	8: Arg -> NAME = NUM
var ruleArity = [...]int{0, 3, 1, 4, 1, 1, 3, 4, 3}

var ruleNonterminal = [...]Nonterminal{
	ntAccept, // unused
	ntAccept, // rule 1 produces the augmented start symbol's child
	NTTrigger,
	NTTrigger,
	NTAction,
	NTAction,
	NTInvocation,
	NTInvocation,
	NTArg,
}

// action is one ACTION table cell: shift to a state or accept. Reduces
// are handled separately, via soleReduceRule below — every reduce state
// in this grammar contains exactly one completed LR(0) item, so a
// reduce fires on any lookahead once no shift applies, with no need to
// precompute a terminal-indexed FOLLOW set per state.
type action struct {
	kind  actionKind
	state int // shift target, when kind == actShift
}

type actionKind int

const (
	actError actionKind = iota
	actShift
	actAccept
)

// States 0..19, hand-derived from the LR(0) item sets over the grammar
// above. No shift/reduce or reduce/reduce conflicts arise — every state
// is either a pure shift state (possibly with a GOTO) or a pure reduce
// state.
var actionTable = map[int]map[Terminal]action{
	0:  {TermNow: {kind: actShift, state: 3}, TermMonitor: {kind: actShift, state: 4}},
	2:  {TermArrow: {kind: actShift, state: 5}},
	4:  {TermLParen: {kind: actShift, state: 17}},
	1:  {TermEnd: {kind: actAccept}},
	5:  {TermNotify: {kind: actShift, state: 7}, TermName: {kind: actShift, state: 9}},
	9:  {TermLParen: {kind: actShift, state: 10}},
	10: {TermRParen: {kind: actShift, state: 11}, TermName: {kind: actShift, state: 13}},
	12: {TermRParen: {kind: actShift, state: 14}},
	13: {TermEq: {kind: actShift, state: 15}},
	15: {TermNum: {kind: actShift, state: 16}},
	17: {TermName: {kind: actShift, state: 9}},
	18: {TermRParen: {kind: actShift, state: 19}},
}

// gotoTable[state][nonterminal] = next state.
var gotoTable = map[int]map[Nonterminal]int{
	0:  {ntAccept: 1, NTTrigger: 2},
	5:  {NTAction: 6, NTInvocation: 8},
	10: {NTArg: 12},
	17: {NTInvocation: 18},
}

// soleReduceRule lists the states that contain exactly one completed
// item and nothing else — a pure LR(0) reduce state. States 9/10/12/17
// shift the same NAME/LPAREN/RPAREN symbol from two different call
// sites (an Invocation used directly as an Action, and one nested
// inside "monitor(...)"); the states below them that complete a
// production (11, 14, 16, 3, 7, 8, 19) reduce unconditionally and let
// the state the reduce reveals on the stack (via GOTO) route the result
// back to whichever caller is waiting, the way LR parsing is supposed
// to share state across contexts without tracking lookahead sets by
// hand.
var soleReduceRule = map[int]int{
	3:  2,
	6:  1,
	7:  4,
	8:  5,
	11: 6,
	14: 7,
	16: 8,
	19: 3,
}
