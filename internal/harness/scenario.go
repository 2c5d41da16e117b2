package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Defaults applied to scenarios that leave these fields empty.
const (
	DefaultNamespace = "com.example.test"
	DefaultPassword  = "pw"
)

// Scenario defines a conformance test scenario: steps run against a fresh
// store, then assertions over the trace and final records.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Namespace and Password bind the store. Defaults: DefaultNamespace and
	// DefaultPassword.
	Namespace string `yaml:"namespace,omitempty"`
	Password  string `yaml:"password,omitempty"`

	// InstallID is returned by the installation ID generator. If empty,
	// defaults to "test-install-default".
	InstallID string `yaml:"install_id,omitempty"`

	// Setup contains steps run before the flow. They must succeed and
	// their expect clauses are ignored.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the main test steps.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and records.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one store operation.
type Step struct {
	// Op is the operation name, see the package documentation.
	Op string `yaml:"op"`

	// Key is the plaintext key for keyed operations.
	Key string `yaml:"key,omitempty"`

	// Type selects the typed accessor. Empty means string.
	Type string `yaml:"type,omitempty"`

	// Value is written by put and init_value. For init it is the password.
	Value any `yaml:"value,omitempty"`

	// Values is written by store_array.
	Values []string `yaml:"values,omitempty"`

	// Default is returned by get when the key is missing or unreadable.
	Default any `yaml:"default,omitempty"`

	// Expect is compared against the step's result when set.
	Expect any `yaml:"expect,omitempty"`

	// ExpectError, when set, requires the step to fail with an error
	// containing this text.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check op appears in trace, optionally on key
	// - "trace_order": Check ops appear in order
	// - "trace_count": Check op appears exactly N times
	// - "final_value": Read key after the flow and compare with expect
	// - "final_count": Check the raw record count in the namespace
	Type string `yaml:"type"`

	// Op is the operation name (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Key narrows trace_contains and names the final_value key.
	Key string `yaml:"key,omitempty"`

	// ValueType is the accessor type for final_value.
	ValueType string `yaml:"value_type,omitempty"`

	// Expect is the expected final_value.
	Expect any `yaml:"expect,omitempty"`

	// Count is the expected number (used by trace_count, final_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected op order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalValue    = "final_value"
	AssertFinalCount    = "final_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	op, ok := operations[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if op.keyed && step.Key == "" {
		return fmt.Errorf("key is required for %s", step.Op)
	}
	if op.typed && !validType(step.Type) {
		return fmt.Errorf("unknown type %q", step.Type)
	}
	if op.needsValue && step.Value == nil {
		return fmt.Errorf("value is required for %s", step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalValue:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for final_value", index)
		}
		if !validType(a.ValueType) {
			return fmt.Errorf("assertions[%d]: unknown value_type %q", index, a.ValueType)
		}
	case AssertFinalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for final_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
