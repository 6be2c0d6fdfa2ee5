package validation

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillswap/internal/domain/model"
)

func TestFilters(t *testing.T) {
	Convey("Given candidate filters", t, func() {
		Convey("When they are empty or well formed", func() {
			So(Filters(model.Filters{}), ShouldBeNil)
			So(Filters(model.Filters{
				Categories:        []string{"Programming"},
				ProficiencyLevels: []model.ProficiencyLevel{model.LevelExpert},
				MinRating:         4.5,
				AvailabilityDays:  []int{0, 6},
				AvailableFrom:     "09:00",
				AvailableTo:       "24:00",
			}), ShouldBeNil)
		})

		Convey("When a rule is broken", func() {
			cases := []model.Filters{
				{MinRating: 6},
				{MinRating: -1},
				{AvailabilityDays: []int{7}},
				{ProficiencyLevels: []model.ProficiencyLevel{"GURU"}},
				{Categories: []string{""}},
				{AvailableFrom: "9am"},
				{AvailableFrom: "12:00", AvailableTo: "09:00"},
			}

			Convey("Then each fails as invalid filters", func() {
				for _, f := range cases {
					err := Filters(f)
					So(err, ShouldNotBeNil)
					So(errors.Is(err, model.ErrInvalidFilters), ShouldBeTrue)
				}
			})
		})

		Convey("When several fields fail", func() {
			err := Filters(model.Filters{MinRating: 9, AvailableTo: "25:00"})
			var verr *Error
			So(errors.As(err, &verr), ShouldBeTrue)

			Convey("Then every field is reported", func() {
				So(len(verr.Fields), ShouldEqual, 2)
				So(err.Error(), ShouldContainSubstring, "Filters.MinRating failed lte=5")
				So(err.Error(), ShouldContainSubstring, "clock")
			})
		})
	})
}

func TestDecisionType(t *testing.T) {
	Convey("Given decision names", t, func() {
		typ, err := DecisionType(Decision{Decision: " favorite "})
		So(err, ShouldBeNil)
		So(typ, ShouldEqual, model.InteractionFavorite)

		for _, bad := range []string{"", "LIKE"} {
			_, err := DecisionType(Decision{Decision: bad})
			So(errors.Is(err, model.ErrInvalidDecision), ShouldBeTrue)
		}
	})
}
