// Package sampling derives time-offset frame references from a clip.
//
// No video is decoded here: each sample is the clip locator annotated with a
// media-fragment offset, left for the inference service to resolve.
package sampling

import (
	"math"
	"net/url"
	"strconv"

	"github.com/okian/clipscout/internal/domain/model"
)

// Sampling bounds.
const (
	MinSamples       = 5
	MaxSamples       = 10
	secondsPerSample = 10
)

// Count returns how many samples a clip of the given duration gets.
func Count(durationSeconds float64) int {
	if math.IsNaN(durationSeconds) || durationSeconds <= 0 {
		return MinSamples
	}
	n := math.Floor(durationSeconds / secondsPerSample)
	switch {
	case n < MinSamples:
		return MinSamples
	case n > MaxSamples:
		return MaxSamples
	default:
		return int(n)
	}
}

// Offsets returns evenly spaced offsets starting at zero. Degenerate durations
// yield MinSamples offsets at interval zero.
func Offsets(durationSeconds float64) []float64 {
	count := Count(durationSeconds)
	interval := 0.0
	if !math.IsNaN(durationSeconds) && !math.IsInf(durationSeconds, 0) && durationSeconds > 0 {
		interval = durationSeconds / float64(count)
	}
	offsets := make([]float64, count)
	for i := range offsets {
		offsets[i] = float64(i) * interval
	}
	return offsets
}

// Sample returns one frame reference per offset for the clip.
func Sample(clip model.ClipReference) []model.FrameSample {
	offsets := Offsets(clip.DurationSeconds)
	frames := make([]model.FrameSample, len(offsets))
	for i, off := range offsets {
		frames[i] = model.FrameSample{OffsetSeconds: off, Reference: Reference(clip.Locator, off)}
	}
	return frames
}

// Reference annotates locator with a "#t=<seconds>" fragment, replacing any
// existing fragment. Unparseable locators get the fragment appended verbatim.
func Reference(locator string, offsetSeconds float64) string {
	t := formatOffset(offsetSeconds)
	u, err := url.Parse(locator)
	if err != nil {
		return locator + "#t=" + t
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + "#t=" + t
}

// formatOffset renders seconds with millisecond precision and no trailing zeros.
func formatOffset(seconds float64) string {
	return strconv.FormatFloat(math.Round(seconds*1000)/1000, 'f', -1, 64)
}
