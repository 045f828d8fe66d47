package publisher

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clipscout/internal/domain/model"
)

func testRecord() *model.AnalysisRecord {
	return &model.AnalysisRecord{
		ID:         uuid.NewString(),
		Mode:       model.ModePractice,
		Subject:    model.NewSubjectContext("Ria", "Keeper"),
		Evaluation: model.EvaluationRecord{"skill_focus": "distribution"},
		Highlights: []model.Highlight{},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestNop(t *testing.T) {
	Convey("Given the no-op publisher", t, func() {
		var p Publisher = Nop{}
		So(p.PublishCompleted(context.Background(), "o", testRecord()), ShouldBeNil)
	})
}

func TestRedisPublisher_Options(t *testing.T) {
	Convey("Given publisher options", t, func() {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		defer client.Close()

		Convey("When none are given", func() {
			p := NewRedisPublisher(client)
			So(p.Stream(), ShouldEqual, DefaultStream)
			So(p.maxLen, ShouldEqual, 0)
		})

		Convey("When stream and cap are set", func() {
			p := NewRedisPublisher(client, WithStream("clips.done"), WithMaxLen(1000), WithStream(""))
			So(p.Stream(), ShouldEqual, "clips.done")
			So(p.maxLen, ShouldEqual, 1000)
		})
	})
}

func TestRedisPublisher_Failures(t *testing.T) {
	Convey("Given a publisher whose server is down", t, func() {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()
		p := NewRedisPublisher(client)

		Convey("When publishing", func() {
			err := p.PublishCompleted(context.Background(), "o", testRecord())

			Convey("Then the error should be returned, not swallowed", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, DefaultStream)
			})
		})

		Convey("When the record is nil", func() {
			So(p.PublishCompleted(context.Background(), "o", nil), ShouldEqual, ErrNilRecord)
		})
	})
}

func TestRedisPublisher_Integration(t *testing.T) {
	url := os.Getenv("CLIPSCOUT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CLIPSCOUT_TEST_REDIS_URL not set")
	}

	Convey("Given a live Redis", t, func() {
		opts, err := redis.ParseURL(url)
		So(err, ShouldBeNil)
		client := redis.NewClient(opts)
		defer client.Close()

		ctx := context.Background()
		stream := "clipscout.test." + uuid.NewString()
		defer client.Del(ctx, stream)

		p := NewRedisPublisher(client, WithStream(stream), WithMaxLen(100))
		rec := testRecord()

		Convey("When a record is published", func() {
			So(p.PublishCompleted(ctx, "owner-9", rec), ShouldBeNil)

			Convey("Then the stream entry should carry the record and its keys", func() {
				entries, err := client.XRange(ctx, stream, "-", "+").Result()
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				v := entries[0].Values
				So(v["analysis_id"], ShouldEqual, rec.ID)
				So(v["mode"], ShouldEqual, "practice")
				So(v["owner"], ShouldEqual, "owner-9")

				var decoded model.AnalysisRecord
				So(json.Unmarshal([]byte(v["data"].(string)), &decoded), ShouldBeNil)
				So(decoded.ID, ShouldEqual, rec.ID)
			})
		})
	})
}
