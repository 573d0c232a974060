package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/armseq/internal/store"
)

// AssertionContext provides store access for final-state assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	Refs  map[string]int64 // step label -> project identity
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", event.Step, event.Op)
		if event.Target != "" {
			fmt.Fprintf(&buf, " %s", event.Target)
		}
		if event.Error != "" {
			fmt.Fprintf(&buf, " -> %s", event.Error)
		}
		fmt.Fprintln(&buf)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	errs := []string{}
	for i, a := range assertions {
		if err := evaluate(result.Trace, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertProjectCount:
		return assertProjectCount(trace, a, actx)
	case AssertFrameCount:
		return assertFrameCount(trace, a, actx)
	case AssertFrameOrder:
		return assertFrameOrder(trace, a, actx)
	case AssertProjectAbsent:
		return assertProjectAbsent(trace, a, actx)
	case AssertProjectName:
		return assertProjectName(trace, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// resolve maps an assertion's project label to its identity.
func resolve(a Assertion, actx *AssertionContext) (int64, error) {
	id, ok := actx.Refs[a.Project]
	if !ok {
		return 0, fmt.Errorf("project %q was never created", a.Project)
	}
	return id, nil
}

func assertProjectCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	projects, err := actx.Store.ListProjects(actx.Ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) != a.Count {
		return &AssertionError{
			Type:     AssertProjectCount,
			Expected: fmt.Sprintf("%d projects", a.Count),
			Actual:   fmt.Sprintf("%d projects", len(projects)),
			Trace:    trace,
		}
	}
	return nil
}

func assertFrameCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	id, err := resolve(a, actx)
	if err != nil {
		return err
	}
	frames, err := actx.Store.FramesByProject(actx.Ctx, id)
	if err != nil {
		return fmt.Errorf("reading frames: %w", err)
	}
	if len(frames) != a.Count {
		return &AssertionError{
			Type:     AssertFrameCount,
			Expected: fmt.Sprintf("%d frames in %s", a.Count, a.Project),
			Actual:   fmt.Sprintf("%d frames", len(frames)),
			Trace:    trace,
		}
	}
	return nil
}

// assertFrameOrder checks the frame positions in the order the store
// returns them. An empty Sequences list asserts there are no frames.
func assertFrameOrder(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	id, err := resolve(a, actx)
	if err != nil {
		return err
	}
	frames, err := actx.Store.FramesByProject(actx.Ctx, id)
	if err != nil {
		return fmt.Errorf("reading frames: %w", err)
	}

	got := make([]int, len(frames))
	for i, f := range frames {
		got[i] = f.Sequence
	}
	want := a.Sequences
	if want == nil {
		want = []int{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertFrameOrder,
			Expected: fmt.Sprintf("sequences %v in %s", want, a.Project),
			Actual:   fmt.Sprintf("sequences %v", got),
			Trace:    trace,
		}
	}
	return nil
}

func assertProjectAbsent(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	id, err := resolve(a, actx)
	if err != nil {
		return err
	}
	p, ok, err := actx.Store.GetProject(actx.Ctx, id)
	if err != nil {
		return fmt.Errorf("reading project: %w", err)
	}
	if ok {
		return &AssertionError{
			Type:     AssertProjectAbsent,
			Expected: fmt.Sprintf("%s deleted", a.Project),
			Actual:   fmt.Sprintf("project %d (%q) exists", id, p.Name),
			Trace:    trace,
		}
	}
	return nil
}

func assertProjectName(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	id, err := resolve(a, actx)
	if err != nil {
		return err
	}
	p, ok, err := actx.Store.GetProject(actx.Ctx, id)
	if err != nil {
		return fmt.Errorf("reading project: %w", err)
	}
	if !ok {
		return &AssertionError{
			Type:     AssertProjectName,
			Expected: fmt.Sprintf("%s named %q", a.Project, a.Name),
			Actual:   "project does not exist",
			Trace:    trace,
		}
	}
	if p.Name != a.Name {
		return &AssertionError{
			Type:     AssertProjectName,
			Expected: fmt.Sprintf("%s named %q", a.Project, a.Name),
			Actual:   fmt.Sprintf("named %q", p.Name),
			Trace:    trace,
		}
	}
	return nil
}
