// Package model contains the domain types passed between pipeline stages.
package model

import (
	"math"
	"net/url"
	"strings"
)

// Defaults applied when callers leave context out.
const (
	DefaultDurationSeconds = 60.0
	DefaultDisplayName     = "Unknown Player"
	DefaultRole            = "Unknown"
)

// ClipReference points at the uploaded video. The pipeline never holds video bytes.
type ClipReference struct {
	Locator         string  `json:"locator"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// NewClipReference builds a clip reference, coercing a missing or invalid
// duration to DefaultDurationSeconds.
func NewClipReference(locator string, durationSeconds float64) ClipReference {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		durationSeconds = DefaultDurationSeconds
	}
	return ClipReference{
		Locator:         strings.TrimSpace(locator),
		DurationSeconds: durationSeconds,
	}
}

// Validate reports whether the locator is an absolute URL with scheme and host.
func (c ClipReference) Validate() error {
	if c.Locator == "" {
		return NewKind("clip.validate", ErrInvalidRequest, "missing clip locator")
	}
	u, err := url.Parse(c.Locator)
	if err != nil {
		return WrapKind("clip.validate", ErrInvalidRequest, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return NewKind("clip.validate", ErrInvalidRequest, "clip locator must be an absolute URL")
	}
	return nil
}

// SubjectContext describes who is being evaluated.
type SubjectContext struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// NewSubjectContext trims the inputs and fills defaults for blanks.
func NewSubjectContext(displayName, role string) SubjectContext {
	s := SubjectContext{
		DisplayName: strings.TrimSpace(displayName),
		Role:        strings.TrimSpace(role),
	}
	if s.DisplayName == "" {
		s.DisplayName = DefaultDisplayName
	}
	if s.Role == "" {
		s.Role = DefaultRole
	}
	return s
}

// FrameSample is a time-offset reference into a clip.
type FrameSample struct {
	OffsetSeconds float64 `json:"offset_seconds"`
	Reference     string  `json:"reference"`
}
