package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/sampling"
	"github.com/okian/clipscout/internal/domain/vision"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeService struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []vision.Request
}

func (f *fakeService) Complete(_ context.Context, req vision.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const fullCompetitive = "```json\n" + `{
  "summary": "Composed display in midfield.",
  "strengths": ["vision", "first touch"],
  "areas_for_improvement": ["tracking back"],
  "pass_completion": 87,
  "first_touch": "78%",
  "situational_awareness": 140,
  "defensive_work": -5,
  "overall_grade": 7.46,
  "breakdown": {"technical": "clean", "tactical": "smart", "physical": "ok", "mental": "calm", "extra": "x"}
}` + "\n```"

func testInput(duration float64) (model.ClipReference, []model.FrameSample, model.SubjectContext) {
	clip := model.NewClipReference("https://cdn.example.com/clips/42.mp4", duration)
	return clip, sampling.Sample(clip), model.NewSubjectContext("Sam Doe", "Midfielder")
}

func TestSchemaFor(t *testing.T) {
	Convey("Given the schema registry", t, func() {
		Convey("When asking for each supported mode", func() {
			for _, m := range model.Modes() {
				s, err := SchemaFor(m)
				So(err, ShouldBeNil)
				So(s.Mode(), ShouldEqual, m)
			}
		})

		Convey("When asking for an unknown mode", func() {
			_, err := SchemaFor(model.EvaluationMode("freestyle"))
			So(errors.Is(err, model.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestCompetitiveShape(t *testing.T) {
	Convey("Given the competitive schema", t, func() {
		s := competitiveSchema{}

		Convey("When the reply carries every field", func() {
			rec := s.Shape(map[string]any{
				"summary":               "ok",
				"strengths":             []any{"a", "", 3, "b"},
				"areas_for_improvement": "one thing",
				"pass_completion":       87.0,
				"first_touch":           "78%",
				"situational_awareness": 140.0,
				"defensive_work":        -5.0,
				"overall_grade":         7.46,
				"breakdown":             map[string]any{"technical": "clean", "mental": 4.0},
			})

			Convey("Then numbers should be coerced and clamped", func() {
				for _, k := range SubScoreKeys {
					So(rec.Has(k), ShouldBeTrue)
				}
				v, _ := rec.Number(KeyFirstTouch)
				So(v, ShouldEqual, 78)
				v, _ = rec.Number(KeySituationalAwareness)
				So(v, ShouldEqual, 100)
				v, _ = rec.Number(KeyDefensiveWork)
				So(v, ShouldEqual, 0)
				v, _ = rec.Number(KeyOverallGrade)
				So(v, ShouldEqual, 7.5)
			})

			Convey("And text lists should keep only strings", func() {
				l, ok := rec.Texts(KeyStrengths)
				So(ok, ShouldBeTrue)
				So(l, ShouldResemble, []string{"a", "b"})
				l, _ = rec.Texts(KeyAreasForImprovement)
				So(l, ShouldResemble, []string{"one thing"})
			})

			Convey("And the breakdown should keep known text keys only", func() {
				So(rec[KeyBreakdown], ShouldResemble, map[string]any{"technical": "clean"})
			})
		})

		Convey("When values cannot be coerced", func() {
			rec := s.Shape(map[string]any{
				"pass_completion": "n/a",
				"overall_grade":   true,
				"breakdown":       map[string]any{"other": "x"},
				"summary":         "   ",
			})

			Convey("Then they should be absent rather than zero", func() {
				So(rec, ShouldBeEmpty)
			})
		})

		Convey("When the grade is out of range", func() {
			rec := s.Shape(map[string]any{"overall_grade": "12"})
			v, ok := rec.Number(KeyOverallGrade)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 10)
		})
	})
}

func TestPracticeShape(t *testing.T) {
	Convey("Given the practice schema", t, func() {
		s := practiceSchema{}

		Convey("When the reply is complete", func() {
			rec := s.Shape(map[string]any{
				"session_summary":      "Focused juggling work.",
				"skill_focus":          "ball control",
				"proficiency_level":    " Advanced ",
				"technical_feedback":   "Keep the ankle locked.",
				"improvement_tips":     []any{"use both feet"},
				"practice_progression": []any{"add a cone", "add pressure"},
				"resources":            []any{"Juggling 101", map[string]any{"title": "Touch drills", "url": "https://x"}, map[string]any{"url": "no title"}},
			})

			Convey("Then every field should be kept", func() {
				So(len(rec), ShouldEqual, 7)
				lvl, _ := rec.Text(KeyProficiencyLevel)
				So(lvl, ShouldEqual, "advanced")
				res, _ := rec.Texts(KeyResources)
				So(res, ShouldResemble, []string{"Juggling 101", "Touch drills"})
			})
		})

		Convey("When the proficiency is outside the closed set", func() {
			rec := s.Shape(map[string]any{"proficiency_level": "pro", "skill_focus": "dribbling"})
			So(rec.Has(KeyProficiencyLevel), ShouldBeFalse)
			So(rec.Has(KeySkillFocus), ShouldBeTrue)
		})
	})
}

func TestRequestEvaluation(t *testing.T) {
	ctx := context.Background()

	Convey("Given an evaluation requester", t, func() {
		clip, frames, subject := testInput(60)

		Convey("When no service is configured", func() {
			r := NewRequester(nil)
			rec, err := r.RequestEvaluation(ctx, clip, frames, subject, model.ModeCompetitive)

			Convey("Then it should fail as unavailable", func() {
				So(rec, ShouldBeNil)
				So(errors.Is(err, model.ErrServiceUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the service returns a full competitive reply", func() {
			svc := &fakeService{reply: fullCompetitive}
			r := NewRequester(svc)
			rec, err := r.RequestEvaluation(ctx, clip, frames, subject, model.ModeCompetitive)

			Convey("Then all five numeric scores should be present", func() {
				So(err, ShouldBeNil)
				for _, k := range append(SubScoreKeys, KeyOverallGrade) {
					So(rec.Has(k), ShouldBeTrue)
				}
			})

			Convey("And one request should carry the defaults and references", func() {
				So(svc.callCount(), ShouldEqual, 1)
				req := svc.calls[0]
				So(req.Purpose, ShouldEqual, PurposeEvaluation)
				So(req.Temperature, ShouldAlmostEqual, DefaultEvaluationTemperature, 1e-6)
				So(req.MaxOutputTokens, ShouldEqual, DefaultEvaluationMaxTokens)
				So(len(req.References), ShouldEqual, len(frames))
				So(req.Instructions, ShouldContainSubstring, "Sam Doe")
				So(req.Instructions, ShouldContainSubstring, "overall_grade")
			})
		})

		Convey("When the reply omits fields", func() {
			svc := &fakeService{reply: `Here you go: {"summary":"fine","pass_completion":70} cheers`}
			rec, err := NewRequester(svc).RequestEvaluation(ctx, clip, frames, subject, model.ModeCompetitive)

			Convey("Then only the present subset should be returned", func() {
				So(err, ShouldBeNil)
				So(len(rec), ShouldEqual, 2)
				So(rec.Has(KeyFirstTouch), ShouldBeFalse)
			})
		})

		Convey("When the reply is not JSON", func() {
			svc := &fakeService{reply: "I cannot evaluate this clip."}
			rec, err := NewRequester(svc).RequestEvaluation(ctx, clip, frames, subject, model.ModePractice)

			Convey("Then an empty record should be returned without error", func() {
				So(err, ShouldBeNil)
				So(rec, ShouldNotBeNil)
				So(rec, ShouldBeEmpty)
			})
		})

		Convey("When more than ten frames are supplied", func() {
			extra := make([]model.FrameSample, 14)
			for i := range extra {
				extra[i] = model.FrameSample{OffsetSeconds: float64(i), Reference: fmt.Sprintf("https://x/c.mp4#t=%d", i)}
			}
			svc := &fakeService{reply: "{}"}
			_, err := NewRequester(svc).RequestEvaluation(ctx, clip, extra, subject, model.ModePractice)

			Convey("Then only ten references should be sent", func() {
				So(err, ShouldBeNil)
				So(len(svc.calls[0].References), ShouldEqual, MaxReferences)
				So(svc.calls[0].References[9], ShouldEqual, "https://x/c.mp4#t=9")
			})
		})

		Convey("When options override the call settings", func() {
			svc := &fakeService{reply: "{}"}
			r := NewRequester(svc, WithTemperature(0.7), WithMaxOutputTokens(512), WithMaxOutputTokens(0))
			_, err := r.RequestEvaluation(ctx, clip, frames, subject, model.ModeCompetitive)
			So(err, ShouldBeNil)
			So(svc.calls[0].Temperature, ShouldAlmostEqual, 0.7, 1e-6)
			So(svc.calls[0].MaxOutputTokens, ShouldEqual, 512)
		})

		Convey("When the service call fails", func() {
			cause := errors.New("429 quota exceeded")
			svc := &fakeService{err: cause}
			_, err := NewRequester(svc).RequestEvaluation(ctx, clip, frames, subject, model.ModeCompetitive)

			Convey("Then it should surface an upstream error carrying the cause", func() {
				So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				So(svc.callCount(), ShouldEqual, 1)
			})
		})

		Convey("When the service is unreachable", func() {
			svc := &fakeService{err: fmt.Errorf("dial: %w", vision.ErrUnreachable)}
			_, err := NewRequester(svc).RequestEvaluation(ctx, clip, frames, subject, model.ModeCompetitive)
			So(errors.Is(err, model.ErrServiceUnavailable), ShouldBeTrue)
			So(errors.Is(err, model.ErrUpstream), ShouldBeFalse)
		})

		Convey("When the mode is invalid", func() {
			svc := &fakeService{reply: "{}"}
			_, err := NewRequester(svc).RequestEvaluation(ctx, clip, frames, subject, model.EvaluationMode("x"))

			Convey("Then the service should not be called", func() {
				So(errors.Is(err, model.ErrInvalidRequest), ShouldBeTrue)
				So(svc.callCount(), ShouldEqual, 0)
			})
		})
	})
}

func TestRequestHighlights(t *testing.T) {
	ctx := context.Background()

	Convey("Given a highlight requester", t, func() {
		clip, frames, subject := testInput(45)

		Convey("When no service is configured", func() {
			hl, err := NewHighlightRequester(nil).RequestHighlights(ctx, clip, frames, subject, model.ModeCompetitive)

			Convey("Then it should return an empty list without error", func() {
				So(err, ShouldBeNil)
				So(hl, ShouldNotBeNil)
				So(hl, ShouldBeEmpty)
			})
		})

		Convey("When the reply lists more than five moments", func() {
			entries := make([]string, 0, 8)
			entries = append(entries, `"not an object"`, `{"timestamp":"00:01"}`)
			for i := 0; i < 6; i++ {
				entries = append(entries, fmt.Sprintf(`{"timestamp":"00:%02d","description":"moment %d","quality":"good"}`, i*5, i))
			}
			svc := &fakeService{reply: `{"highlights":[` + strings.Join(entries, ",") + `]}`}
			hl, err := NewHighlightRequester(svc).RequestHighlights(ctx, clip, frames, subject, model.ModePractice)

			Convey("Then invalid entries should be skipped and the rest truncated", func() {
				So(err, ShouldBeNil)
				So(len(hl), ShouldEqual, model.MaxHighlights)
				So(hl[0], ShouldResemble, model.Highlight{TimeMark: "00:00", Description: "moment 0", QualityTag: "good"})
			})

			Convey("And the call should use the highlight defaults", func() {
				req := svc.calls[0]
				So(req.Purpose, ShouldEqual, PurposeHighlights)
				So(req.Temperature, ShouldAlmostEqual, DefaultHighlightTemperature, 1e-6)
				So(req.MaxOutputTokens, ShouldEqual, DefaultHighlightMaxTokens)
				So(req.Instructions, ShouldContainSubstring, "practice session")
			})
		})

		Convey("When the reply is a bare array with numeric timestamps", func() {
			svc := &fakeService{reply: "Sure:\n[{\"timestamp\": 75, \"description\": \"volley\"}]"}
			hl, err := NewHighlightRequester(svc).RequestHighlights(ctx, clip, frames, subject, model.ModeCompetitive)
			So(err, ShouldBeNil)
			So(len(hl), ShouldEqual, 1)
			So(hl[0].TimeMark, ShouldEqual, "01:15")
			So(hl[0].QualityTag, ShouldEqual, "")
		})

		Convey("When the reply cannot be parsed", func() {
			svc := &fakeService{reply: "nothing notable"}
			hl, err := NewHighlightRequester(svc).RequestHighlights(ctx, clip, frames, subject, model.ModeCompetitive)
			So(err, ShouldBeNil)
			So(hl, ShouldBeEmpty)
		})

		Convey("When a configured service fails", func() {
			svc := &fakeService{err: errors.New("timeout")}
			hl, err := NewHighlightRequester(svc).RequestHighlights(ctx, clip, frames, subject, model.ModeCompetitive)

			Convey("Then the error should propagate", func() {
				So(hl, ShouldBeNil)
				So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
			})
		})
	})
}
