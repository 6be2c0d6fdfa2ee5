package service

import (
	"context"
	"testing"

	"github.com/okian/skillswap/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScheduler_AddFailure(t *testing.T) {
	Convey("Given a scheduler without jobs", t, func() {
		s, err := NewScheduler(New(WithLogger(logger.Nop())), 0, 0, logger.Nop())
		So(err, ShouldBeNil)

		Convey("When a job cannot be registered", func() {
			err := s.add("broken", 0, func() {})

			Convey("Then the error is returned and the scheduler context is released", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "schedule broken")
				So(s.ctx.Err(), ShouldEqual, context.Canceled)
				So(s.Jobs(), ShouldBeEmpty)
			})
		})
	})
}
