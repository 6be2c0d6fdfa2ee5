package seed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/adapters/repository"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

type failingWriter struct{ failID string }

func (w failingWriter) SavePerson(_ context.Context, p *model.Person) error {
	if p.ID == w.failID {
		return errors.New("constraint violation")
	}
	return nil
}

func TestGenerate(t *testing.T) {
	Convey("Given a fixed seed", t, func() {
		cfg := seed.Config{People: 50, Seed: 7, Now: now}
		a := seed.Generate(cfg)
		b := seed.Generate(cfg)

		Convey("Then generation is deterministic", func() {
			So(len(a), ShouldEqual, 50)
			So(a[17], ShouldResemble, b[17])
		})

		Convey("Then every person is well formed", func() {
			for _, p := range a {
				So(p.ID, ShouldNotBeEmpty)
				So(p.Rating, ShouldBeBetweenOrEqual, 0.0, 5.0)
				So(len(p.Skills), ShouldBeGreaterThanOrEqualTo, 2)
				So(p.LastActiveAt.After(now), ShouldBeFalse)
				for _, s := range p.Availability {
					So(s.Valid(), ShouldBeTrue)
				}
				for _, s := range p.Skills {
					So(s.CanTeach != s.WantsToLearn, ShouldBeTrue)
				}
			}
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a generated population", t, func() {
		people := seed.Generate(seed.Config{People: 20, Seed: 1, Now: now})

		Convey("When it is loaded into memory", func() {
			store := repository.NewMemory()
			st, err := seed.Load(context.Background(), store, people, 3, nil)

			Convey("Then everyone is saved", func() {
				So(err, ShouldBeNil)
				So(st.Saved, ShouldEqual, 20)
				So(store.Count(), ShouldEqual, 20)
			})
		})

		Convey("When one write fails", func() {
			st, err := seed.Load(context.Background(), failingWriter{failID: people[4].ID}, people, 2, nil)

			Convey("Then it is counted and the rest continue", func() {
				So(err, ShouldBeNil)
				So(st.Failed, ShouldEqual, 1)
				So(st.Saved, ShouldEqual, 19)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := seed.Load(ctx, repository.NewMemory(), people, 2, nil)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
