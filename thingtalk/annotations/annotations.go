// Package annotations is the ambient structured-event system the
// cmd/ttc pipeline reports its stages through: each stage it runs emits
// a named Event with timing and structured data. The thingtalk/*
// packages themselves do not import it.
// Events forward to an injected *zap.Logger sink rather than
// accumulating in an in-process buffer.
package annotations

import (
	"time"

	"go.uber.org/zap"
)

// Event name constants, one hierarchical "component/action" name per
// pipeline stage.
const (
	LexerTokenized = "lexer/tokenized"

	ParseBegin    = "parse/begin"
	ParseComplete = "parse/completed"
	ParseFailed   = "parse/failed"

	SchemaCacheHit   = "schema/cache.hit"
	SchemaCacheMiss  = "schema/cache.miss"
	SchemaBatchFetch = "schema/batch.fetch"
	SchemaInjected   = "schema/class.injected"

	TypecheckBegin    = "typecheck/begin"
	TypecheckComplete = "typecheck/completed"
	TypecheckFailed   = "typecheck/failed"

	OptimizeRewrite = "optimize/rewrite"

	CompileRuleBegin    = "compile/rule.begin"
	CompileRuleComplete = "compile/rule.completed"

	TransformExecutorLowering = "transform/executor.lowering"

	ErrorUnknownKind   = "error/schema.unknown_kind"
	ErrorTypeMismatch  = "error/typecheck.type_mismatch"
	ErrorNonExecutable = "error/typecheck.non_executable"
)

// Event is a single annotation event: a name, a time span, and
// arbitrary structured data.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]interface{}
}

// Recorder forwards every Event it receives to an injected *zap.Logger.
// A production deployment ships these events to a log aggregator rather
// than reading them back out of process, so there is no accumulation
// step here — each event is forwarded and forgotten.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder builds a Recorder that forwards through logger. A nil
// logger falls back to zap.NewNop(), matching every other thingtalk/*
// package's logger-injection convention.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

// Record forwards event as a single structured log line.
func (r *Recorder) Record(event Event) {
	fields := make([]interface{}, 0, 2+2*len(event.Data))
	if event.Latency > 0 {
		fields = append(fields, "latency", event.Latency)
	}
	for k, v := range event.Data {
		fields = append(fields, k, v)
	}
	r.logger.Sugar().Infow(event.Name, fields...)
}

// RecordTiming records an event spanning [start, now), with data as
// its structured payload.
func (r *Recorder) RecordTiming(name string, start time.Time, data map[string]interface{}) {
	end := time.Now()
	r.Record(Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}
