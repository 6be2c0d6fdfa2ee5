package scoring_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
	scoring "github.com/okian/skillswap/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func monday(from, to int) model.AvailabilitySlot {
	return model.AvailabilitySlot{DayOfWeek: 1, StartMinute: from * 60, EndMinute: to * 60, Active: true}
}

func pair() (*model.Person, *model.Person) {
	requester := &model.Person{
		ID:            "teacher",
		Rating:        4.0,
		TotalSessions: 12,
		Skills: []model.SkillDeclaration{
			{SkillID: "js", SkillName: "JavaScript", Category: "Programming", Proficiency: 90, CanTeach: true},
			{SkillID: "py", SkillName: "Python", Category: "Programming", Proficiency: 30, WantsToLearn: true},
		},
		Availability: []model.AvailabilitySlot{monday(9, 17)},
	}
	candidate := &model.Person{
		ID:            "learner",
		Rating:        4.6,
		TotalSessions: 25,
		Skills: []model.SkillDeclaration{
			{SkillID: "js", SkillName: "JavaScript", Category: "Programming", Proficiency: 20, WantsToLearn: true},
			{SkillID: "ux", SkillName: "UI/UX Design", Category: "Design", Proficiency: 80, CanTeach: true},
		},
		Availability: []model.AvailabilitySlot{monday(10, 18)},
	}
	return requester, candidate
}

func TestWeights(t *testing.T) {
	Convey("Given the default weights", t, func() {
		w := scoring.DefaultWeights()

		Convey("Then they sum to exactly one and validate", func() {
			So(w.Sum(), ShouldAlmostEqual, 1.0, 1e-12)
			So(w.Validate(), ShouldBeNil)
		})
	})

	Convey("Given weights that do not sum to one", t, func() {
		w := scoring.DefaultWeights()
		w.ResponseRate = 0.3

		Convey("Then validation fails and the calculator keeps the defaults", func() {
			So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			c := scoring.NewCalculator(scoring.WithWeights(w))
			So(c.Weights(), ShouldResemble, scoring.DefaultWeights())
		})
	})

	Convey("Given negative weights", t, func() {
		w := scoring.Weights{Complementarity: 1.2, AvailabilityOverlap: -0.2}
		So(w.Validate(), ShouldEqual, scoring.ErrInvalidWeights)
	})
}

func TestCalculator_Score(t *testing.T) {
	Convey("Given a calculator with default weights", t, func() {
		calc := scoring.NewCalculator()
		requester, candidate := pair()

		Convey("When scoring the teacher against the learner", func() {
			res := calc.Score(scoring.Input{Requester: requester, Candidate: candidate, Now: now})
			b := res.Breakdown

			Convey("Then every sub-score is in range", func() {
				for _, v := range []float64{b.Complementarity, b.AvailabilityOverlap, b.LearningStyle, b.RatingHistory, b.ResponseRate, b.Total} {
					So(v, ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			Convey("Then the total is the rounded weighted sum", func() {
				w := calc.Weights()
				sum := w.Complementarity*b.Complementarity + w.AvailabilityOverlap*b.AvailabilityOverlap +
					w.LearningStyle*b.LearningStyle + w.RatingHistory*b.RatingHistory + w.ResponseRate*b.ResponseRate
				So(b.Total, ShouldEqual, math.Round(sum*100)/100)
				So(res.Score(), ShouldEqual, b.Total)
			})

			Convey("Then the factors match their definitions", func() {
				So(b.Complementarity, ShouldAlmostEqual, 0.71, 1e-9)
				So(res.OverlapMinutes, ShouldEqual, 420)
				So(b.AvailabilityOverlap, ShouldAlmostEqual, 420.0/480.0, 1e-9)
				So(b.ResponseRate, ShouldEqual, 0.5)
				So(b.RatingHistory, ShouldEqual, 1.0) // 0.92 + 0.1 capped
			})
		})

		Convey("When the candidate is an unrated stranger with nothing in common", func() {
			res := calc.Score(scoring.Input{Requester: requester, Candidate: &model.Person{ID: "x", TotalSessions: 112}, Now: now})

			Convey("Then only the session bonus and the neutral response prior contribute", func() {
				So(res.Breakdown.Complementarity, ShouldEqual, 0.0)
				So(res.Breakdown.AvailabilityOverlap, ShouldEqual, 0.0)
				So(res.Breakdown.LearningStyle, ShouldEqual, 0.0)
				So(res.Breakdown.Total, ShouldEqual, 0.08)
			})
		})
	})

	Convey("Given alternate injected weights", t, func() {
		calc := scoring.NewCalculator(scoring.WithWeights(scoring.Weights{Complementarity: 1}))
		requester, candidate := pair()

		Convey("Then the total follows them", func() {
			res := calc.Score(scoring.Input{Requester: requester, Candidate: candidate, Now: now})
			So(res.Breakdown.Total, ShouldEqual, 0.71)
		})
	})
}

func TestRatingHistory(t *testing.T) {
	Convey("Given ratings and session counts", t, func() {
		So(scoring.RatingHistory(0, 0), ShouldEqual, 0.0)
		So(scoring.RatingHistory(2.5, 0), ShouldAlmostEqual, 0.5, 1e-9)
		So(scoring.RatingHistory(2.5, 25), ShouldAlmostEqual, 0.6, 1e-9)
		So(scoring.RatingHistory(2.5, 1000), ShouldAlmostEqual, 0.7, 1e-9)
		So(scoring.RatingHistory(5, 50), ShouldEqual, 1.0)
	})
}

func TestResponseRate(t *testing.T) {
	Convey("Given a candidate's decision history", t, func() {
		since := now.Add(-30 * 24 * time.Hour)
		at := func(d time.Duration) time.Time { return now.Add(-d) }
		history := []model.MatchInteraction{
			{Type: model.InteractionFavorite, UpdatedAt: at(time.Hour)},
			{Type: model.InteractionPass, UpdatedAt: at(2 * time.Hour)},
			{Type: model.InteractionBlock, UpdatedAt: at(3 * time.Hour)},
			{Type: model.InteractionFavorite, UpdatedAt: at(4 * time.Hour)},
			{Type: model.InteractionView, UpdatedAt: at(time.Hour)},
			{Type: model.InteractionPass, UpdatedAt: at(40 * 24 * time.Hour)},
		}

		Convey("Then only in-window decisions count", func() {
			So(scoring.ResponseRate(history, since), ShouldEqual, 0.5)
		})

		Convey("Then no decisions means the neutral prior", func() {
			So(scoring.ResponseRate(nil, since), ShouldEqual, 0.5)
			So(scoring.ResponseRate(history[4:5], since), ShouldEqual, 0.5)
		})

		Convey("Then favorites only means one", func() {
			So(scoring.ResponseRate(history[:1], since), ShouldEqual, 1.0)
		})
	})
}
