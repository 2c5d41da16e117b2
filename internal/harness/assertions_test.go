package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Phase: "setup", Op: "put", Key: "name", Args: "Ada"},
		{Seq: 2, Phase: "flow", Op: "get", Key: "name", Args: "?", Result: "Ada"},
		{Seq: 3, Phase: "flow", Op: "put", Key: "other", Args: "x"},
		{Seq: 4, Phase: "flow", Op: "lookup", Key: "absent", Error: "prefs: key not found"},
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	assert.NoError(t, assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: "put"}))
	assert.NoError(t, assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: "put", Key: "other"}))
}

func TestAssertTraceContains_NotFound(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{Type: AssertTraceContains, Op: "get", Key: "other"})
	require.Error(t, err)

	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, "trace_contains", assertErr.Type)
	assert.Contains(t, assertErr.Expected, `"other"`)
	assert.Equal(t, "not found in trace", assertErr.Actual)
}

func TestAssertTraceOrder(t *testing.T) {
	assert.NoError(t, assertTraceOrder(sampleTrace(), Assertion{Ops: []string{"put", "get", "lookup"}}))

	err := assertTraceOrder(sampleTrace(), Assertion{Ops: []string{"get", "put"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get (pos 2) should be before put (pos 1)")

	err = assertTraceOrder(sampleTrace(), Assertion{Ops: []string{"put", "remove"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing op: remove")
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(sampleTrace(), Assertion{Op: "put", Count: 2}))
	assert.NoError(t, assertTraceCount(sampleTrace(), Assertion{Op: "remove", Count: 0}))

	err := assertTraceCount(sampleTrace(), Assertion{Op: "put", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences of put")
	assert.Contains(t, err.Error(), "Actual: 2 occurrences")
}

func TestAssertFinalCount(t *testing.T) {
	result := NewResult()
	result.Records = 4

	assert.NoError(t, assertFinalCount(result, Assertion{Count: 4}))

	err := assertFinalCount(result, Assertion{Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 2 records")
	assert.Contains(t, err.Error(), "Actual: 4 records")
}

func TestEvaluateAssertions_FinalValue(t *testing.T) {
	scenario := &Scenario{
		Name:        "final_value",
		Description: "final_value reads through the typed getter",
		Flow: []Step{
			{Op: "put", Key: "n", Type: "long", Value: 9},
		},
		Assertions: []Assertion{
			{Type: AssertFinalValue, Key: "n", ValueType: "long", Expect: 9},
			{Type: AssertFinalValue, Key: "n", ValueType: "long", Expect: 10},
			{Type: AssertFinalValue, Key: "missing", ValueType: "int", Expect: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: final_value")
	assert.Contains(t, result.Errors[0], "Expected: n = 10")
	assert.Contains(t, result.Errors[0], "Actual: n = 9")
}

func TestEvaluateAssertions_Unknown(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "sometimes"}}, &AssertionContext{Ctx: context.Background()})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "sometimes"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 occurrences of put",
		Actual:   "2 occurrences",
		Trace:    sampleTrace()[1:2],
	}

	want := "Assertion failed: trace_count\n" +
		"  Expected: 1 occurrences of put\n" +
		"  Actual: 2 occurrences\n" +
		"\nFull trace:\n" +
		"  [2] get name -> Ada\n"
	assert.Equal(t, want, err.Error())
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestResult_AddTraceNumbersEvents(t *testing.T) {
	r := NewResult()
	r.AddTrace(TraceEvent{Op: "count", Seq: 99})
	r.AddTrace(TraceEvent{Op: "dump"})

	assert.Equal(t, int64(1), r.Trace[0].Seq)
	assert.Equal(t, int64(2), r.Trace[1].Seq)
}
