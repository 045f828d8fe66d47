package service_test

import (
	"context"
	"testing"

	service "github.com/okian/clipscout/internal/app"
	"github.com/okian/clipscout/internal/domain/analysis"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/vision"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service around the real orchestrator", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fake := vision.ServiceFunc(func(_ context.Context, req vision.Request) (string, error) {
			if req.Purpose == "highlights" {
				return `{"highlights":[{"timestamp":"00:12","description":"first-time pass","quality":"excellent"}]}`, nil
			}
			return "```json\n{\"summary\":\"Composed\",\"overall_grade\":\"7.46\",\"pass_completion\":\"91%\"}\n```", nil
		})
		orch := analysis.NewOrchestrator(fake, analysis.WithConcurrentHighlights(true))
		svc := service.New(orch, service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		Convey("A queued job produces a stored, shaped record", func() {
			st, _, err := svc.Submit(ctx, "coach", "upload-7", request())
			So(err, ShouldBeNil)

			done := waitForState(svc, "coach", st.ID, model.JobSucceeded)
			So(done.State, ShouldEqual, model.JobSucceeded)

			stored, err := svc.Get(ctx, "coach", done.AnalysisID)
			So(err, ShouldBeNil)
			So(stored.Record.Mode, ShouldEqual, model.ModeCompetitive)
			So(stored.Record.Subject.DisplayName, ShouldEqual, "Sam Lee")

			grade, ok := stored.Record.Evaluation.Number("overall_grade")
			So(ok, ShouldBeTrue)
			So(grade, ShouldAlmostEqual, 7.5, 0.0001)

			pass, ok := stored.Record.Evaluation.Number("pass_completion")
			So(ok, ShouldBeTrue)
			So(pass, ShouldEqual, 91.0)

			So(len(stored.Record.Highlights), ShouldEqual, 1)
			So(stored.Record.Highlights[0].TimeMark, ShouldEqual, "00:12")
		})

		Convey("An invalid mode never reaches the pipeline", func() {
			req := request()
			req.Mode = model.EvaluationMode("scrimmage")
			_, _, err := svc.Submit(ctx, "coach", "", req)
			So(err, ShouldNotBeNil)
			So(model.KindOf(err), ShouldEqual, "invalid_request")
		})
	})
}
