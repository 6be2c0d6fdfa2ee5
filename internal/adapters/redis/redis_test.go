package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillswap/internal/domain/model"
)

// offline points at a port nothing listens on; only argument checks run.
func offline() *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
}

func TestLockerArguments(t *testing.T) {
	Convey("Given a locker", t, func() {
		l := NewLocker(offline(), "test:")
		ctx := context.Background()

		Convey("Then keys are namespaced", func() {
			So(l.Key("batch"), ShouldEqual, "test:lock:batch")
		})

		Convey("Then bad arguments fail before touching redis", func() {
			_, ok, err := l.Acquire(ctx, "", time.Second)
			So(ok, ShouldBeFalse)
			So(err, ShouldEqual, ErrKeyEmpty)

			_, ok, err = l.Acquire(ctx, "batch", 0)
			So(ok, ShouldBeFalse)
			So(err, ShouldEqual, ErrInvalidTTL)
		})

		Convey("Then an unreachable server is an error, not a refusal", func() {
			release, ok, err := l.Acquire(ctx, "batch", time.Second)
			So(err, ShouldNotBeNil)
			So(ok, ShouldBeFalse)
			So(release, ShouldBeNil)
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("Given a notification", t, func() {
		at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		n := model.Notification{UserID: "u1", Kind: model.NotificationKindNewMatches, Count: 4, RunID: "r1", CreatedAt: at}

		Convey("When encoding it", func() {
			data, err := Encode(n)
			So(err, ShouldBeNil)

			Convey("Then the payload carries the fields consumers read", func() {
				var got map[string]any
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got["user_id"], ShouldEqual, "u1")
				So(got["kind"], ShouldEqual, "new-matches")
				So(got["count"], ShouldEqual, 4.0)
				So(got["run_id"], ShouldEqual, "r1")
			})
		})
	})

	Convey("Given a publisher without a channel", t, func() {
		So(NewPublisher(offline(), "").Channel(), ShouldEqual, DefaultChannel)
	})
}

// TestAgainstServer runs when SWAP_TEST_REDIS_ADDR points at a live server.
func TestAgainstServer(t *testing.T) {
	addr := os.Getenv("SWAP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SWAP_TEST_REDIS_ADDR not set")
	}
	Convey("Given a live redis", t, func() {
		ctx := context.Background()
		cfg := DefaultConfig()
		cfg.Addr = addr
		client, err := NewClient(ctx, cfg)
		So(err, ShouldBeNil)
		defer client.Close()
		l := NewLocker(client, "skillswap-test:")

		Convey("When the lock is taken twice", func() {
			release, ok, err := l.Acquire(ctx, "batch", 5*time.Second)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			_, again, err := l.Acquire(ctx, "batch", 5*time.Second)
			So(err, ShouldBeNil)

			Convey("Then the second attempt is refused until release", func() {
				So(again, ShouldBeFalse)
				So(release(ctx), ShouldBeNil)
				So(release(ctx), ShouldEqual, ErrNotHeld)
			})
		})

		Convey("When publishing", func() {
			sub := client.Subscribe(ctx, "skillswap-test:notes")
			defer sub.Close()
			_, err := sub.Receive(ctx)
			So(err, ShouldBeNil)
			So(NewPublisher(client, "skillswap-test:notes").Deliver(ctx, model.Notification{UserID: "u1", Count: 1}), ShouldBeNil)

			Convey("Then subscribers get the JSON payload", func() {
				msg, err := sub.ReceiveMessage(ctx)
				So(err, ShouldBeNil)
				So(msg.Payload, ShouldContainSubstring, `"user_id":"u1"`)
			})
		})
	})
}
