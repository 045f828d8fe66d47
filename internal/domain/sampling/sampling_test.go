package sampling_test

import (
	"math"
	"testing"

	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/sampling"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCount(t *testing.T) {
	Convey("Given clip durations", t, func() {
		Convey("When the clip is 50 seconds or shorter", func() {
			for _, d := range []float64{-10, 0, 0.5, 9.99, 30, 49.9, 50} {
				So(sampling.Count(d), ShouldEqual, 5)
			}
		})

		Convey("When the clip is 100 seconds or longer", func() {
			for _, d := range []float64{100, 100.1, 600, 7200} {
				So(sampling.Count(d), ShouldEqual, 10)
			}
		})

		Convey("When the clip is in between", func() {
			prev := sampling.Count(50)
			for d := 50.0; d <= 100; d += 0.5 {
				c := sampling.Count(d)
				So(c, ShouldBeGreaterThanOrEqualTo, prev)
				So(c, ShouldBeBetweenOrEqual, 5, 10)
				prev = c
			}
			So(sampling.Count(75), ShouldEqual, 7)
		})

		Convey("When the duration is NaN", func() {
			So(sampling.Count(math.NaN()), ShouldEqual, 5)
		})
	})
}

func TestOffsets(t *testing.T) {
	Convey("Given a 75 second clip", t, func() {
		offsets := sampling.Offsets(75)

		Convey("Then offsets should be evenly spaced from zero", func() {
			So(len(offsets), ShouldEqual, 7)
			So(offsets[0], ShouldEqual, 0)
			for i := 0; i+1 < len(offsets); i++ {
				So(offsets[i+1]-offsets[i], ShouldAlmostEqual, 75.0/7, 1e-9)
			}
		})
	})

	Convey("Given degenerate durations", t, func() {
		for _, d := range []float64{0, -5, math.NaN(), math.Inf(1)} {
			offsets := sampling.Offsets(d)
			So(len(offsets), ShouldBeGreaterThanOrEqualTo, sampling.MinSamples)
			for _, off := range offsets {
				So(off, ShouldEqual, 0)
			}
		}
	})

	Convey("Given a long clip", t, func() {
		offsets := sampling.Offsets(300)
		So(len(offsets), ShouldEqual, 10)
		So(offsets[9], ShouldEqual, 270)
	})
}

func TestSample(t *testing.T) {
	Convey("Given a clip locator", t, func() {
		frames := sampling.Sample(model.ClipReference{Locator: "https://cdn.example.com/u/clip.mp4", DurationSeconds: 60})

		Convey("Then each frame should reference the locator with a time fragment", func() {
			So(len(frames), ShouldEqual, 6)
			So(frames[0].Reference, ShouldEqual, "https://cdn.example.com/u/clip.mp4#t=0")
			So(frames[1].Reference, ShouldEqual, "https://cdn.example.com/u/clip.mp4#t=10")
			So(frames[5].OffsetSeconds, ShouldEqual, 50)
		})
	})

	Convey("Given a locator with a query and fragment", t, func() {
		ref := sampling.Reference("https://cdn.example.com/clip.mp4?sig=abc#old", 12.3456)

		Convey("Then the fragment should be replaced and the query kept", func() {
			So(ref, ShouldEqual, "https://cdn.example.com/clip.mp4?sig=abc#t=12.346")
		})
	})

	Convey("Given an unparseable locator", t, func() {
		So(sampling.Reference("://x", 5), ShouldEqual, "://x#t=5")
	})
}
