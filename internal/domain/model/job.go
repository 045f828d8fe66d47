package model

import "time"

// JobState tracks an asynchronous analysis.
type JobState string

// Job states.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// AnalysisRequest is the input for one analysis.
type AnalysisRequest struct {
	Clip    ClipReference
	Subject SubjectContext
	Mode    EvaluationMode
}

// Job is an analysis request queued for background processing.
type Job struct {
	ID          string
	Owner       string
	Request     AnalysisRequest
	SubmittedAt time.Time
}

// JobStatus is the externally visible view of a job.
type JobStatus struct {
	ID         string    `json:"job_id"`
	State      JobState  `json:"status"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
