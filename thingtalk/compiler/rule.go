package compiler

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// CompiledRule is one program rule lowered to a Step DAG, plus the
// bookkeeping a runtime interpreter needs to schedule it: how many
// state slots it needs and, for executor= rules, the remote flow its
// lowering produced.
type CompiledRule struct {
	Head           ast.HeadKind
	Steps          []*Step
	StateSlotCount int
	Remote         *RemotePair // non-nil when r.Executor lowered this rule
}

func (r *CompiledRule) String() string {
	var s string
	for _, step := range r.Steps {
		s += step.String()
	}
	return fmt.Sprintf("rule(head=%s, slots=%d)\n%s", r.Head, r.StateSlotCount, s)
}

// RemotePair is the synthesized sender/receiver half of an executor=
// lowering: see thingtalk/transform for where the two programs are
// assembled; CompiledRule only records the FlowID and Principal the
// lowering produced.
type RemotePair struct {
	Principal ast.Value
	FlowID    string
}

// CompilerOptions configures Compile: a small plain struct of tunables
// rather than functional options, with a Logger that defaults to
// zap.NewNop() when nil.
type CompilerOptions struct {
	Logger *zap.Logger
}

func (o CompilerOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// compiler carries the mutable state a single Compile call threads
// through its recursive descent: the next free state slot and the
// logger. Never reused across calls, matching thingtalk/parser's
// per-call Parser convention.
type compiler struct {
	opts     CompilerOptions
	nextSlot int
}

func (c *compiler) allocSlot() int {
	s := c.nextSlot
	c.nextSlot++
	return s
}

// Compile lowers every Rule statement in p into a CompiledRule.
// Declarations and class definitions carry no runnable
// dataflow of their own (thingtalk/transform inlines them into rules
// before this runs) and are skipped.
func Compile(p *ast.Program, opts CompilerOptions) ([]*CompiledRule, error) {
	var out []*CompiledRule
	for _, stmt := range p.Statements {
		rule, ok := stmt.(*ast.Rule)
		if !ok {
			continue
		}
		cr, err := CompileRule(rule, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, nil
}

// CompileRule lowers a single rule. The pipeline is: trigger/timer/
// at_timer head (with a monitor gate inserted for HeadMonitor), then
// each query stage in Queries, lowered on its own by compileStage and
// appended in order, then the action (or a bare StepEmit for
// "=> notify"), then — when Executor is set — a synthesized
// send_end_of_flow boundary.
func CompileRule(r *ast.Rule, opts CompilerOptions) (*CompiledRule, error) {
	c := &compiler{opts: opts}
	log := opts.logger().With(zap.String("head", r.Head.String()))

	var steps []*Step

	head, err := c.compileHead(r)
	if err != nil {
		return nil, err
	}
	steps = append(steps, head...)

	for _, q := range r.Queries {
		qs, err := c.compileStage(q)
		if err != nil {
			return nil, err
		}
		steps = append(steps, qs)
	}

	action, err := c.compileAction(r.Action)
	if err != nil {
		return nil, err
	}
	steps = append(steps, action)

	cr := &CompiledRule{Head: r.Head, Steps: steps, StateSlotCount: c.nextSlot}

	if r.Executor != nil {
		cr.Remote = &RemotePair{Principal: r.Executor, FlowID: uuid.NewString()}
		steps = append(steps, &Step{
			Kind:      StepSendEndOfFlow,
			Scope:     ScopeAction,
			Principal: r.Executor.String(),
			FlowID:    cr.Remote.FlowID,
		})
		cr.Steps = steps
	}

	log.Debug("rule compiled", zap.Int("steps", len(cr.Steps)), zap.Int("slots", cr.StateSlotCount))
	return cr, nil
}

// compileHead lowers the trigger half of a rule: "now" produces no
// step at all (the action runs immediately), a raw timer/at_timer
// produces its own invoke step, and "monitor(table)" lowers to a
// StepMonitorGate that holds the change-detection state slot and nests
// the monitored table's full query pipeline (Children[0]) and a
// StepSaveState (Children[1]).
func (c *compiler) compileHead(r *ast.Rule) ([]*Step, error) {
	switch r.Head {
	case ast.HeadNow:
		return nil, nil
	case ast.HeadTimer:
		t, ok := r.Trigger.(*ast.Timer)
		if !ok {
			return nil, fmt.Errorf("compiler: HeadTimer rule with non-Timer trigger %T", r.Trigger)
		}
		return []*Step{{Kind: StepInvokeTimer, Scope: ScopeTimer, Base: t.Base, Limit: t.Freq}}, nil
	case ast.HeadAtTimer:
		t, ok := r.Trigger.(*ast.AtTimer)
		if !ok {
			return nil, fmt.Errorf("compiler: HeadAtTimer rule with non-AtTimer trigger %T", r.Trigger)
		}
		return []*Step{{Kind: StepInvokeAtTimer, Scope: ScopeAtTimer, Base: t.Expiry}}, nil
	case ast.HeadMonitor:
		switch trig := r.Trigger.(type) {
		case *ast.Monitor:
			body, err := c.compileStage(trig.Table)
			if err != nil {
				return nil, err
			}
			slot := c.allocSlot()
			gate := &Step{
				Kind:              StepMonitorGate,
				Scope:             ScopeTrigger,
				MinimalProjection: monitorKeys(trig),
				StateSlot:         slot,
				// The gate compares against the slot, then writes the
				// current tuple back on every iteration, changed or not.
				Children: []*Step{body, {Kind: StepSaveState, StateSlot: slot}},
			}
			return []*Step{gate}, nil
		case *ast.Invocation:
			// A raw stream function used directly as the trigger needs no
			// change-detection gate; the device pushes tuples itself.
			return []*Step{{Kind: StepInvokeTrigger, Scope: ScopeTrigger, Invocation: trig}}, nil
		default:
			return nil, fmt.Errorf("compiler: HeadMonitor rule with trigger %T", r.Trigger)
		}
	default:
		return nil, fmt.Errorf("compiler: unknown head kind %v", r.Head)
	}
}

// monitorKeys picks the field set a monitor's is_new_tuple comparison
// keys on: Fields when the program named one, else the table's
// minimal_projection annotation (falling back to every out arg) plus
// the names of the input arguments actually bound on the monitored
// invocation — the same table polled with different inputs must not
// share change-detection state.
func monitorKeys(m *ast.Monitor) []string {
	if len(m.Fields) > 0 {
		return m.Fields
	}
	s := m.Table.Schema()
	if s == nil {
		return nil
	}
	keys := append([]string(nil), s.MinimalProjection()...)
	if inv := innermostInvocation(m.Table); inv != nil {
		var bound []string
		for name := range inv.InArgs {
			bound = append(bound, name)
		}
		sort.Strings(bound)
		keys = append(keys, bound...)
	}
	return keys
}

func innermostInvocation(e ast.Expression) *ast.Invocation {
	switch n := e.(type) {
	case *ast.Invocation:
		return n
	case *ast.FilterExpr:
		return innermostInvocation(n.Input)
	case *ast.Projection:
		return innermostInvocation(n.Input)
	case *ast.Sort:
		return innermostInvocation(n.Input)
	case *ast.Index:
		return innermostInvocation(n.Input)
	case *ast.Slice:
		return innermostInvocation(n.Input)
	default:
		return nil
	}
}

// compileStage lowers one query-pipeline expression into a single Step
// (possibly with nested Children), dispatching on the expression's
// concrete node type.
func (c *compiler) compileStage(e ast.Expression) (*Step, error) {
	switch n := e.(type) {
	case *ast.Invocation:
		return &Step{Kind: StepInvokeQuery, Scope: ScopeQuery, Invocation: n}, nil

	case *ast.FilterExpr:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		step := &Step{Kind: StepFilter, Filter: n.Filter, Children: []*Step{input}}
		// Get-predicates evaluate as their own scoped subqueries; a
		// failure inside one reports via the get_predicate boundary
		// without aborting the enclosing filter's other conjuncts.
		for _, ext := range externalFilters(n.Filter) {
			step.Children = append(step.Children, &Step{
				Kind:       StepGetPredicate,
				Scope:      ScopeGetPredicate,
				Invocation: ext.Invocation,
				Filter:     ext.Filter,
			})
		}
		return step, nil

	case *ast.Projection:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		return &Step{Kind: StepProjection, Fields: n.Fields, Children: []*Step{input}}, nil

	case *ast.Sort:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		return &Step{Kind: StepSort, SortField: n.Field, SortDir: n.Direction, Children: []*Step{input}}, nil

	case *ast.Index:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		return &Step{Kind: StepIndex, Indices: n.Indices, Children: []*Step{input}}, nil

	case *ast.Slice:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		return &Step{Kind: StepSlice, Base: n.Base, Limit: n.Limit, Children: []*Step{input}}, nil

	case *ast.Aggregation:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		return &Step{Kind: StepAggregate, AggOp: n.Op, AggField: n.Field, Children: []*Step{input}}, nil

	case *ast.ArgMinMax:
		input, err := c.compileStage(n.Input)
		if err != nil {
			return nil, err
		}
		slot := c.allocSlot()
		return &Step{
			Kind: StepArgMinMax, AggOp: n.Op, AggField: n.Field,
			Base: n.Base, Limit: n.Limit, StateSlot: slot,
			Children: []*Step{input},
		}, nil

	case *ast.Join:
		return c.compileJoin(n)

	case *ast.Monitor:
		// A Monitor reached mid-pipeline (rather than as a rule's trigger)
		// lowers the same way the head case does, minus the gate's
		// distinguished trigger scope — the Expression algebra allows a
		// monitor anywhere a Stream is expected (e.g. inside a
		// get-predicate body), so this case stays symmetric with
		// compileHead's.
		body, err := c.compileStage(n.Table)
		if err != nil {
			return nil, err
		}
		slot := c.allocSlot()
		return &Step{
			Kind: StepMonitorGate, MinimalProjection: monitorKeys(n),
			StateSlot: slot,
			Children:  []*Step{body, {Kind: StepSaveState, StateSlot: slot}},
		}, nil

	default:
		return nil, fmt.Errorf("compiler: unsupported query stage %T", e)
	}
}

// compileJoin picks a stream join (whenever either side is itself a
// monitor/timer stream, i.e. unbounded) or a scalar nested-loop join
// (when both sides are finite query tables). A stream join re-evaluates
// the finite side per stream tuple; a join of two finite tables is a
// plain nested loop emitting concatenated tuples.
func (c *compiler) compileJoin(j *ast.Join) (*Step, error) {
	lhs, err := c.compileStage(j.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := c.compileStage(j.RHS)
	if err != nil {
		return nil, err
	}
	kind := StepJoinScalar
	if isStream(j.LHS) || isStream(j.RHS) {
		kind = StepJoinStream
	}
	return &Step{Kind: kind, Fields: onFields(j.On), Children: []*Step{lhs, rhs}}, nil
}

// externalFilters collects every get-predicate reachable from f,
// including those nested under And/Or/Not.
func externalFilters(f ast.Filter) []*ast.ExternalFilter {
	var out []*ast.ExternalFilter
	switch n := f.(type) {
	case *ast.And:
		for _, o := range n.Operands {
			out = append(out, externalFilters(o)...)
		}
	case *ast.Or:
		for _, o := range n.Operands {
			out = append(out, externalFilters(o)...)
		}
	case *ast.Not:
		out = append(out, externalFilters(n.Operand)...)
	case *ast.ExternalFilter:
		out = append(out, n)
	}
	return out
}

func isStream(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Monitor, *ast.Timer, *ast.AtTimer:
		return true
	default:
		return false
	}
}

func onFields(on map[string]string) []string {
	var out []string
	for k := range on {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// compileAction lowers the final stage: "=> notify" becomes a bare
// StepEmit, any other action lowers to an invocation under
// ScopeAction.
func (c *compiler) compileAction(a ast.Expression) (*Step, error) {
	if a == nil {
		return &Step{Kind: StepEmit, Scope: ScopeAction}, nil
	}
	inv, ok := a.(*ast.Invocation)
	if !ok {
		return nil, fmt.Errorf("compiler: action must be an invocation, got %T", a)
	}
	return &Step{Kind: StepInvokeAction, Scope: ScopeAction, Invocation: inv}, nil
}
