package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanford-oval/thingtalk-go/thingtalk/schema"
)

func testPipeline() *pipeline {
	provider := newStaticProvider()
	resolver := schema.NewResolver(provider, schema.ResolverOptions{})
	for _, c := range provider.classes {
		resolver.InjectClass(c)
	}
	return newPipeline(resolver, nil)
}

func TestParseTokens_MonitorNotify(t *testing.T) {
	prog, err := parseTokens("monitor ( @com.weather.current ( ) ) => notify")
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
}

func TestParseTokens_RejectsGarbage(t *testing.T) {
	_, err := parseTokens("now notify")
	require.Error(t, err)
}

func TestRunProgram_MonitorWeatherCompiles(t *testing.T) {
	pipe := testPipeline()
	prog, err := parseTokens("monitor ( @com.weather.current ( ) ) => notify")
	require.NoError(t, err)

	rules, err := pipe.run(context.Background(), prog)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 1, rules[0].StateSlotCount)
}

func TestRunProgram_ExecutorLoweringCompiles(t *testing.T) {
	pipe := testPipeline()
	prog := demoPrograms()["executor-lowering"]

	rules, err := pipe.run(context.Background(), prog)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.NotNil(t, rules[0].Remote)
	assert.NotEmpty(t, rules[0].Remote.FlowID)
}

func TestDumpRules_NoColorIsPlainText(t *testing.T) {
	pipe := testPipeline()
	prog := demoPrograms()["monitor-weather"]
	rules, err := pipe.run(context.Background(), prog)
	require.NoError(t, err)

	var buf bytes.Buffer
	dumpRules(&buf, rules, false)
	out := buf.String()
	assert.Contains(t, out, "monitor_gate")
	assert.NotContains(t, out, "\x1b[")
}

func TestDumpRules_EmptyRules(t *testing.T) {
	var buf bytes.Buffer
	dumpRules(&buf, nil, false)
	assert.Contains(t, buf.String(), "no rules compiled")
}
