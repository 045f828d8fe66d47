package jobload

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

var positions = []string{"Goalkeeper", "Defender", "Midfielder", "Winger", "Striker"}

// generate builds the submissions of a run. Keys are unique per run; every
// DuplicateEvery-th key is submitted a second time right after the first.
func generate(cfg *Config) []Submission {
	runID := uuid.NewString()[:8]
	out := make([]Submission, 0, cfg.Jobs+cfg.Jobs/max(cfg.DuplicateEvery, 1))

	for i := 0; i < cfg.Jobs; i++ {
		mode := "competitive"
		if i%2 == 1 {
			mode = "practice"
		}
		s := Submission{
			Key: "load-" + runID + "-" + strconv.Itoa(i),
			Body: SubmissionBody{
				ClipURL:         fmt.Sprintf("%s/%s/%d.mp4", cfg.ClipBaseURL, runID, i),
				DurationSeconds: float64(30 + (i%10)*15),
				PlayerName:      "Load Player " + strconv.Itoa(i),
				PlayerPosition:  positions[i%len(positions)],
				Mode:            mode,
			},
		}
		out = append(out, s)
		if cfg.DuplicateEvery > 0 && i%cfg.DuplicateEvery == 0 {
			out = append(out, s)
		}
	}
	return out
}
