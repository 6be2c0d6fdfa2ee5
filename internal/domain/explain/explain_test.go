package explain_test

import (
	"testing"

	"github.com/okian/skillswap/internal/domain/explain"
	"github.com/okian/skillswap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a strong match", t, func() {
		in := explain.Input{
			Breakdown:       model.Breakdown{Complementarity: 0.71, AvailabilityOverlap: 0.875, Total: 0.78},
			CandidateRating: 4.6,
			CommonSkills:    1,
		}

		Convey("Then every fragment appears in order", func() {
			So(explain.Generate(in), ShouldEqual,
				"78% match: excellent skill exchange potential, highly compatible schedules, highly rated, 1 shared skill")
		})
	})

	Convey("Given a middling match", t, func() {
		in := explain.Input{
			Breakdown:       model.Breakdown{Complementarity: 0.5, AvailabilityOverlap: 0.4, Total: 0.456},
			CandidateRating: 4.0,
			CommonSkills:    3,
		}

		Convey("Then the lower tier fragments are used", func() {
			So(explain.Generate(in), ShouldEqual,
				"46% match: good skill complementarity, some schedule overlap, well rated, 3 shared skills")
		})
	})

	Convey("Given thresholds hit exactly", t, func() {
		in := explain.Input{
			Breakdown:       model.Breakdown{Complementarity: 0.7, AvailabilityOverlap: 0.3, Total: 0.3},
			CandidateRating: 3.9,
		}

		Convey("Then strict bounds are respected", func() {
			So(explain.Generate(in), ShouldEqual, "30% match: good skill complementarity")
		})
	})

	Convey("Given nothing worth mentioning", t, func() {
		Convey("Then the fallback is used", func() {
			So(explain.Generate(explain.Input{}), ShouldEqual, "0% match: potential learning opportunity")
		})
	})
}

func TestPercent(t *testing.T) {
	Convey("Given scores", t, func() {
		So(explain.Percent(0.456), ShouldEqual, 46)
		So(explain.Percent(1), ShouldEqual, 100)
		So(explain.Percent(0), ShouldEqual, 0)
	})
}
