package annotations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder_ForwardsEventToLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	r := NewRecorder(logger)

	r.Record(Event{Name: TypecheckFailed, Data: map[string]interface{}{"function": "foo.q1"}})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, TypecheckFailed, entries[0].Message)
	}
}

func TestRecorder_NilLoggerIsNoop(t *testing.T) {
	r := NewRecorder(nil)
	assert.NotPanics(t, func() {
		r.RecordTiming(CompileRuleComplete, time.Now(), map[string]interface{}{"steps": 3})
	})
}
