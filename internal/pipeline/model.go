package pipeline

// StageStatus represents the outcome of one stage execution.
type StageStatus string

const (
	StatusPass StageStatus = "pass"
	StatusFail StageStatus = "fail"
	StatusSkip StageStatus = "skip"
)

// StageResult is the persisted result of a single stage.
// Matches .pipegate/run/stages/<stage>.json schema.
type StageResult struct {
	Stage    string      `json:"stage"`
	Status   StageStatus `json:"status"`
	ExitCode int         `json:"exit_code"`
	Note     string      `json:"note,omitempty"`
}

// LastRun summarizes the most recent pipeline execution.
// Matches .pipegate/run/last-run.json schema.
type LastRun struct {
	Status string   `json:"status"` // "pass" or "fail"
	Stages []string `json:"stages"` // Ordered list of stages run
	Failed []string `json:"failed"` // Stages that failed and aborted the run
	Warned []string `json:"warned"` // Stages that failed softly
}
