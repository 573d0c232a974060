package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/store"
	"github.com/roach88/armseq/internal/testutil"
)

// Harness is the scenario execution engine.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
	refs   map[string]int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database in a temporary directory, with a
// step clock starting at 1000ms, so repeated runs produce identical
// traces.
//
// The returned error reports infrastructure failures only (the database
// could not be created). Step and assertion failures are in the Result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "armseq-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios
	clock := testutil.NewStepClock(1000, 1)

	st, err := store.Open(filepath.Join(dir, "scenario.db"), store.WithClock(clock.Now), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: logger,
		refs:   make(map[string]int64),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	for label, id := range h.refs {
		result.Refs[label] = id
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
		Refs:  h.refs,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one step, checks it against its expect clause and
// records the outcome in the trace.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	id := h.refs[step.Target]
	opErr := h.apply(ctx, step, &id)

	event := TraceEvent{
		Step:      index,
		Op:        step.Op,
		Target:    step.Target,
		ProjectID: id,
	}
	if step.Op == OpCreate {
		event.Target = step.As
	}
	if opErr != nil {
		event.Error = string(store.CodeOf(opErr))
		if event.Error == "" {
			event.Error = opErr.Error()
		}
	}

	switch {
	case step.Expect == nil && opErr != nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", index, step.Op, opErr))
	case step.Expect != nil && opErr == nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got success", index, step.Op, step.Expect.Error))
	case step.Expect != nil && !hasCode(opErr, step.Expect.Error):
		result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %v", index, step.Op, step.Expect.Error, opErr))
	}

	projects, err := h.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	event.Projects = len(projects)

	if id != 0 {
		frames, err := h.store.FramesByProject(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read frames: %w", err)
		}
		event.Frames = len(frames)
	}

	result.AddTrace(event)
	h.logger.Info("step completed",
		"step", index,
		"op", step.Op,
		"project_id", id,
		"error", event.Error,
	)
	return nil
}

// apply performs the step's store operation. A create stores the new
// identity in *id and under the step's label.
func (h *Harness) apply(ctx context.Context, step Step, id *int64) error {
	switch step.Op {
	case OpCreate:
		a, err := step.Project.Aggregate()
		if err != nil {
			return err
		}
		newID, err := h.store.InsertProjectWithFrames(ctx, a.Project, a.Frames)
		if err != nil {
			return err
		}
		*id = newID
		h.refs[step.As] = newID
		return nil

	case OpUpdate:
		a, err := step.Project.Aggregate()
		if err != nil {
			return err
		}
		a.ID = choreo.Assigned(*id)
		return h.store.UpdateProjectWithFrames(ctx, a)

	case OpReplace:
		a, err := step.Project.Aggregate()
		if err != nil {
			return err
		}
		a.ID = choreo.Assigned(*id)
		_, err = h.store.InsertProject(ctx, a.Project, store.InsertOrReplace)
		return err

	case OpDelete:
		return h.store.DeleteProjectByID(ctx, *id)

	case OpDeleteFrame:
		return h.store.DeleteFrameBySequence(ctx, *id, *step.Sequence)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// hasCode reports whether code appears anywhere in err's chain.
func hasCode(err error, code string) bool {
	return errors.Is(err, &store.Error{Code: store.ErrorCode(code)})
}
