package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/roach88/aesprefs/internal/backend"
	"github.com/roach88/aesprefs/internal/prefs"
	"github.com/roach88/aesprefs/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and installation ID.
type Harness struct {
	registry  *backend.SQLite
	store     *prefs.Store
	namespace string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Bind the store to the scenario's namespace and password
// 3. Execute setup steps
// 4. Execute flow steps with expect validation
// 5. Evaluate assertions and return the result
func Run(scenario *Scenario) (*Result, error) {
	reg, err := backend.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer reg.Close()

	h := &Harness{
		registry: reg,
		store: prefs.New(reg,
			prefs.WithClock(testutil.NewDeterministicClock()),
			prefs.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.InstallID)),
			prefs.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
			prefs.WithLogMode(prefs.LogNone),
		),
		namespace: orDefault(scenario.Namespace, DefaultNamespace),
	}

	ctx := context.Background()
	if err := h.store.Init(ctx, h.namespace, orDefault(scenario.Password, DefaultPassword)); err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	h.executeFlow(ctx, scenario.Flow, result)

	records, err := h.countRecords(ctx)
	if err != nil {
		return nil, err
	}
	result.Records = records

	actx := &AssertionContext{
		Harness: h,
		Ctx:     ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps. Any failure aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		ev := h.step(ctx, "setup", step)
		result.AddTrace(ev)
		if ev.Error != "" {
			return fmt.Errorf("setup[%d] %s: %s", i, step.Op, ev.Error)
		}
	}
	return nil
}

// executeFlow runs all flow steps and records expectation mismatches.
func (h *Harness) executeFlow(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		ev := h.step(ctx, "flow", step)
		result.AddTrace(ev)
		if msg := checkExpect(step, ev); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: %s", i, step.Op, step.Key, msg))
		}
	}
}

func (h *Harness) step(ctx context.Context, phase string, step Step) TraceEvent {
	args, res, err := h.execute(ctx, step)
	ev := TraceEvent{
		Phase:  phase,
		Op:     step.Op,
		Key:    step.Key,
		Type:   step.Type,
		Args:   normalize(args),
		Result: normalize(res),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// checkExpect returns a description of how ev differs from the step's
// expectations, or "".
func checkExpect(step Step, ev TraceEvent) string {
	if step.ExpectError != "" {
		if ev.Error == "" {
			return fmt.Sprintf("expected error containing %q, got success", step.ExpectError)
		}
		if !strings.Contains(ev.Error, step.ExpectError) {
			return fmt.Sprintf("expected error containing %q, got %q", step.ExpectError, ev.Error)
		}
		return ""
	}
	if ev.Error != "" {
		return fmt.Sprintf("unexpected error: %s", ev.Error)
	}
	if step.Expect != nil {
		want := normalize(step.Expect)
		if !reflect.DeepEqual(want, ev.Result) {
			return fmt.Sprintf("expected %v, got %v", want, ev.Result)
		}
	}
	return ""
}

// countRecords counts raw rows in the currently bound namespace, master IV
// included.
func (h *Harness) countRecords(ctx context.Context) (int, error) {
	var n int
	err := h.registry.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prefs WHERE namespace = ?`, h.store.Namespace()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
