package analysis

import (
	"fmt"
)

// Stage is a pipeline state. Stages only move forward; any fatal error ends
// the run in StageFailed.
type Stage string

// Pipeline stages in order.
const (
	StagePending             Stage = "pending"
	StageFramesSampled       Stage = "frames_sampled"
	StageEvaluated           Stage = "evaluated"
	StageHighlightsExtracted Stage = "highlights_extracted"
	StageComposed            Stage = "composed"
	StageFailed              Stage = "failed"
)

func (s Stage) String() string { return string(s) }

// Failure is returned when an analysis does not produce a record. Stage is the
// last stage reached before the error; Err keeps its original kind for
// errors.Is.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("analysis failed after stage %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// State is the terminal state of the run, always StageFailed.
func (f *Failure) State() Stage { return StageFailed }
