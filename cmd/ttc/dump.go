package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/stanford-oval/thingtalk-go/thingtalk/compiler"
)

// dumpRules renders compiled rules as a markdown summary table plus,
// per rule, its full Step tree, with step kinds highlighted via
// fatih/color.
func dumpRules(w io.Writer, rules []*compiler.CompiledRule, useColor bool) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "_no rules compiled_")
		return
	}

	summary := &strings.Builder{}
	table := tablewriter.NewTable(summary,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Head", "Steps", "State Slots", "Remote"})
	for _, r := range rules {
		remote := "-"
		if r.Remote != nil {
			remote = fmt.Sprintf("%s (flow %s)", r.Remote.Principal, r.Remote.FlowID)
		}
		table.Append([]string{
			r.Head.String(),
			fmt.Sprintf("%d", len(r.Steps)),
			fmt.Sprintf("%d", r.StateSlotCount),
			remote,
		})
	}
	table.Render()
	fmt.Fprint(w, summary.String())

	for i, r := range rules {
		fmt.Fprintf(w, "\n%s\n", colorize(useColor, fmt.Sprintf("--- rule %d ---", i), color.FgYellow))
		for _, s := range r.Steps {
			fmt.Fprint(w, colorizeStep(useColor, s.String()))
		}
	}
}

func colorize(useColor bool, text string, attrs ...color.Attribute) string {
	if !useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// colorizeStep highlights a Step's kind tag (the first word of each
// line of the pretty-printed tree) without disturbing its indentation.
func colorizeStep(useColor bool, tree string) string {
	if !useColor {
		return tree
	}
	lines := strings.Split(strings.TrimRight(tree, "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]
		fields := strings.SplitN(trimmed, " ", 2)
		kind := color.New(color.FgCyan).Sprint(fields[0])
		if len(fields) > 1 {
			lines[i] = indent + kind + " " + fields[1]
		} else {
			lines[i] = indent + kind
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
