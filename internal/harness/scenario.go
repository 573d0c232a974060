package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/armseq/internal/document"
	"github.com/roach88/armseq/internal/store"
)

// Scenario defines a store scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order against a fresh store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one store operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// As labels the project created by a create step.
	As string `yaml:"as,omitempty"`

	// Target is the label of the project the step acts on.
	Target string `yaml:"target,omitempty"`

	// Project is the document written by create, update and replace.
	Project *document.Document `yaml:"project,omitempty"`

	// Sequence is the frame position removed by delete_frame.
	Sequence *int `yaml:"sequence,omitempty"`

	// Expect declares the error the step must fail with.
	// If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step failure.
type ExpectClause struct {
	// Error is a store error code, e.g. "TRANSACTION_FAILURE". The step
	// passes if the code appears anywhere in the error chain.
	Error string `yaml:"error"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "project_count": the store holds exactly Count projects
	// - "frame_count": Project has exactly Count frames
	// - "frame_order": Project's frame positions, in read order, equal Sequences
	// - "project_absent": Project no longer exists
	// - "project_name": Project is named Name
	Type string `yaml:"type"`

	// Project is a step label (all types except project_count).
	Project string `yaml:"project,omitempty"`

	// Count is the expected number (project_count, frame_count).
	Count int `yaml:"count,omitempty"`

	// Sequences is the expected frame order (frame_order).
	Sequences []int `yaml:"sequences,omitempty"`

	// Name is the expected project name (project_name).
	Name string `yaml:"name,omitempty"`
}

// Step operations.
const (
	OpCreate      = "create"       // InsertProjectWithFrames
	OpUpdate      = "update"       // UpdateProjectWithFrames
	OpReplace     = "replace"      // InsertProject with InsertOrReplace
	OpDelete      = "delete"       // DeleteProjectByID
	OpDeleteFrame = "delete_frame" // DeleteFrameBySequence
)

// Assertion type constants.
const (
	AssertProjectCount  = "project_count"
	AssertFrameCount    = "frame_count"
	AssertFrameOrder    = "frame_order"
	AssertProjectAbsent = "project_absent"
	AssertProjectName   = "project_name"
)

var knownCodes = map[string]bool{
	string(store.ErrCodeNotFound):            true,
	string(store.ErrCodeConstraintViolation): true,
	string(store.ErrCodeTransactionFailure):  true,
	string(store.ErrCodeStorageUnavailable):  true,
}

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
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks that required fields are present and that
// every label is defined before it is used.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	labels := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, &step, labels); err != nil {
			return err
		}
		if step.Op == OpCreate {
			labels[step.As] = true
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, labels); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step, labels map[string]bool) error {
	needsProject := false
	switch step.Op {
	case OpCreate:
		if step.As == "" {
			return fmt.Errorf("steps[%d]: as is required for create", index)
		}
		if labels[step.As] {
			return fmt.Errorf("steps[%d]: label %q already defined", index, step.As)
		}
		needsProject = true
	case OpUpdate, OpReplace:
		needsProject = true
	case OpDelete:
	case OpDeleteFrame:
		if step.Sequence == nil {
			return fmt.Errorf("steps[%d]: sequence is required for delete_frame", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if step.Op != OpCreate {
		if step.Target == "" {
			return fmt.Errorf("steps[%d]: target is required for %s", index, step.Op)
		}
		if !labels[step.Target] {
			return fmt.Errorf("steps[%d]: unknown target %q", index, step.Target)
		}
	}

	if needsProject {
		if step.Project == nil {
			return fmt.Errorf("steps[%d]: project is required for %s", index, step.Op)
		}
		if _, err := step.Project.Aggregate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}

	if step.Expect != nil && !knownCodes[step.Expect.Error] {
		return fmt.Errorf("steps[%d].expect: unknown error code %q", index, step.Expect.Error)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, labels map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertProjectCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for project_count", index)
		}
		return nil
	case AssertFrameCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for frame_count", index)
		}
	case AssertFrameOrder, AssertProjectAbsent:
	case AssertProjectName:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for project_name", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Project == "" {
		return fmt.Errorf("assertions[%d]: project is required for %s", index, a.Type)
	}
	if !labels[a.Project] {
		return fmt.Errorf("assertions[%d]: unknown project %q", index, a.Project)
	}
	return nil
}
