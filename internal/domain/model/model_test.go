package model_test

import (
	"testing"

	model "github.com/okian/skillswap/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseClock(t *testing.T) {
	convey.Convey("Given wall-clock strings", t, func() {
		convey.Convey("When they are well formed", func() {
			nine, err := model.ParseClock("09:00")
			convey.So(err, convey.ShouldBeNil)
			convey.So(nine, convey.ShouldEqual, 540)

			end, err := model.ParseClock("24:00")
			convey.So(err, convey.ShouldBeNil)
			convey.So(end, convey.ShouldEqual, model.MinutesPerDay)
			convey.So(model.FormatClock(nine+75), convey.ShouldEqual, "10:15")
		})

		convey.Convey("When they are out of range or garbage", func() {
			for _, in := range []string{"25:00", "10:60", "24:30", "noon", ""} {
				_, err := model.ParseClock(in)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})
	})
}

func TestProficiencyLevels(t *testing.T) {
	convey.Convey("Given proficiency values on band edges", t, func() {
		convey.So(model.LevelFor(0), convey.ShouldEqual, model.LevelBeginner)
		convey.So(model.LevelFor(25), convey.ShouldEqual, model.LevelBeginner)
		convey.So(model.LevelFor(26), convey.ShouldEqual, model.LevelIntermediate)
		convey.So(model.LevelFor(75), convey.ShouldEqual, model.LevelAdvanced)
		convey.So(model.LevelFor(100), convey.ShouldEqual, model.LevelExpert)

		lo, hi := model.LevelAdvanced.Range()
		convey.So(lo, convey.ShouldEqual, 51)
		convey.So(hi, convey.ShouldEqual, 75)
	})
}

func TestInteractionType(t *testing.T) {
	convey.Convey("Given interaction types", t, func() {
		convey.So(model.InteractionFavorite.IsValid(), convey.ShouldBeTrue)
		convey.So(model.InteractionView.IsValid(), convey.ShouldBeTrue)
		convey.So(model.InteractionType("LIKE").IsValid(), convey.ShouldBeFalse)
		convey.So(model.InteractionView.IsDecision(), convey.ShouldBeFalse)
		convey.So(model.InteractionBlock.IsDecision(), convey.ShouldBeTrue)
	})
}

func TestFiltersMatches(t *testing.T) {
	convey.Convey("Given a candidate who teaches Go in Berlin on Monday mornings", t, func() {
		p := &model.Person{
			ID:       "c1",
			Rating:   4.2,
			Location: "Berlin, DE",
			Skills: []model.SkillDeclaration{
				{SkillID: "go", SkillName: "Go", Category: "Programming", Proficiency: 80, CanTeach: true},
				{SkillID: "es", SkillName: "Spanish", Category: "Languages", Proficiency: 10, WantsToLearn: true},
			},
			Availability: []model.AvailabilitySlot{
				{DayOfWeek: 1, StartMinute: 540, EndMinute: 720, Active: true},
				{DayOfWeek: 3, StartMinute: 1080, EndMinute: 1200, Active: false},
			},
		}

		convey.Convey("Then the zero filter matches", func() {
			convey.So(model.Filters{}.IsZero(), convey.ShouldBeTrue)
			convey.So(model.Filters{}.Matches(p), convey.ShouldBeTrue)
		})

		convey.Convey("Then each filter is applied conjunctively", func() {
			convey.So(model.Filters{Categories: []string{"programming"}}.Matches(p), convey.ShouldBeTrue)
			convey.So(model.Filters{Categories: []string{"Languages"}}.Matches(p), convey.ShouldBeFalse)
			convey.So(model.Filters{ProficiencyLevels: []model.ProficiencyLevel{model.LevelExpert}}.Matches(p), convey.ShouldBeTrue)
			convey.So(model.Filters{ProficiencyLevels: []model.ProficiencyLevel{model.LevelBeginner}}.Matches(p), convey.ShouldBeFalse)
			convey.So(model.Filters{Location: "berlin"}.Matches(p), convey.ShouldBeTrue)
			convey.So(model.Filters{Location: "Paris"}.Matches(p), convey.ShouldBeFalse)
			convey.So(model.Filters{MinRating: 4.5}.Matches(p), convey.ShouldBeFalse)
			convey.So(model.Filters{MinRating: 4.0, Location: "berlin"}.Matches(p), convey.ShouldBeTrue)
		})

		convey.Convey("Then availability filters only look at active slots", func() {
			convey.So(model.Filters{AvailabilityDays: []int{1}}.Matches(p), convey.ShouldBeTrue)
			convey.So(model.Filters{AvailabilityDays: []int{3}}.Matches(p), convey.ShouldBeFalse)
			convey.So(model.Filters{AvailableFrom: "11:00", AvailableTo: "13:00"}.Matches(p), convey.ShouldBeTrue)
			convey.So(model.Filters{AvailableFrom: "12:00"}.Matches(p), convey.ShouldBeFalse)
			convey.So(model.Filters{AvailabilityDays: []int{1}, AvailableTo: "08:00"}.Matches(p), convey.ShouldBeFalse)
		})
	})
}
