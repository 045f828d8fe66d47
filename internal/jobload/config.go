// Package jobload drives the asynchronous job API with concurrent
// submissions, deliberate idempotency-key repeats and status polling, then
// checks that every repeat resolved to the job its key created.
package jobload

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Owner          string        // Sent as X-Owner-ID
	Jobs           int           // Number of distinct jobs to submit
	DuplicateEvery int           // Resubmit every Nth key once more; 0 disables repeats
	Workers        int           // Concurrent submitters
	Timeout        time.Duration // Per HTTP request
	PollInterval   time.Duration // Delay between status sweeps
	PollTimeout    time.Duration // Give up waiting for jobs after this long
	ClipBaseURL    string        // Prefix for generated clip URLs
}

// Submission is one POST /v1/jobs call.
type Submission struct {
	Key  string
	Body SubmissionBody
}

// SubmissionBody mirrors the API's analysis request.
type SubmissionBody struct {
	ClipURL         string  `json:"clip_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayerName      string  `json:"player_name"`
	PlayerPosition  string  `json:"player_position"`
	Mode            string  `json:"mode"`
}

// JobAck is the response to a submission or a status poll.
type JobAck struct {
	ID         string `json:"job_id"`
	Status     string `json:"status"`
	AnalysisID string `json:"analysis_id,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Duplicate  bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	Submitted    int
	Accepted     int
	Duplicates   int
	Rejected     int // 429 backpressure
	Failed       int // any other non-2xx or transport failure
	Succeeded    int
	JobsFailed   int
	Unfinished   int
	FailureKinds map[string]int
	StartTime    time.Time
	Duration     time.Duration
}
