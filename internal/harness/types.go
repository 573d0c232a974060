package harness

// TraceEvent records the observable outcome of one scenario step.
type TraceEvent struct {
	Step      int    `json:"step"`
	Op        string `json:"op"`
	Target    string `json:"target,omitempty"`
	ProjectID int64  `json:"project_id,omitempty"`
	Frames    int    `json:"frames"`   // target's frames after the step
	Projects  int    `json:"projects"` // all projects after the step
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Refs maps step labels to the identities they were assigned.
	Refs map[string]int64 `json:"refs,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Refs:   make(map[string]int64),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
