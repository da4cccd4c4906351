package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq      int64          `json:"seq"`
	Step     int            `json:"step"`
	Query    string         `json:"query"`
	Mode     string         `json:"mode"` // "direct" or "prepared"
	Params   map[string]any `json:"params,omitempty"`
	IDs      []any          `json:"ids,omitempty"`
	Rows     int            `json:"rows"`
	Affected int64          `json:"affected,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Execution modes.
const (
	ModeDirect   = "direct"
	ModePrepared = "prepared"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
