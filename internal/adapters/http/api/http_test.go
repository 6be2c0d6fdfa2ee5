package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/skillswap/internal/adapters/http/api"
	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/validation"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	lastUser    string
	lastTarget  string
	lastFilters model.Filters
	lastLimit   int
	err         error
	batch       model.BatchStats
}

func (f *fakeDeps) SuggestMatches(_ context.Context, requesterID string, filters model.Filters, limit int) ([]model.RankedMatch, error) {
	f.lastUser, f.lastFilters, f.lastLimit = requesterID, filters, limit
	if f.err != nil {
		return nil, f.err
	}
	if err := validation.Filters(filters); err != nil {
		return nil, err
	}
	return []model.RankedMatch{{Candidate: &model.Person{ID: "bob"}, Score: 0.82, Explanation: "82% match: highly rated"}}, nil
}

func (f *fakeDeps) RecordDecision(_ context.Context, userID, targetID, decision string) (model.MatchInteraction, error) {
	f.lastUser, f.lastTarget = userID, targetID
	if f.err != nil {
		return model.MatchInteraction{}, f.err
	}
	t, err := validation.DecisionType(validation.Decision{Decision: decision})
	if err != nil {
		return model.MatchInteraction{}, err
	}
	return model.MatchInteraction{ID: "i1", UserID: userID, TargetUserID: targetID, Type: t}, nil
}

func (f *fakeDeps) Unblock(_ context.Context, userID, targetID string) error {
	f.lastUser, f.lastTarget = userID, targetID
	return f.err
}

func (f *fakeDeps) ListFavorites(_ context.Context, userID string) ([]model.RankedMatch, error) {
	f.lastUser = userID
	return nil, f.err
}

func (f *fakeDeps) RunBatchGeneration(context.Context) (model.BatchStats, error) {
	return f.batch, f.err
}

func (f *fakeDeps) PurgeStaleInteractions(context.Context) (int64, error) {
	return 3, f.err
}

type fakeStats struct{}

func (fakeStats) GetStats() service.Stats { return service.Stats{Started: true, BatchState: "IDLE"} }

func do(h http.Handler, method, target, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set(api.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Matches(t *testing.T) {
	Convey("Given the API over fake dependencies", t, func() {
		deps := &fakeDeps{}
		h := api.NewServer(deps, fakeStats{}).Handler()

		Convey("When a request has no identity", func() {
			rec := do(h, http.MethodGet, "/v1/matches", "", "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When alice asks for filtered matches", func() {
			rec := do(h, http.MethodGet, "/v1/matches?category=Programming,Design&level=expert&day=1&day=3&min_rating=4&from=09:00&to=12:00&location=Berlin&limit=5", "alice", "")

			Convey("Then the query is parsed into filters", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastUser, ShouldEqual, "alice")
				So(deps.lastLimit, ShouldEqual, 5)
				So(deps.lastFilters.Categories, ShouldResemble, []string{"Programming", "Design"})
				So(deps.lastFilters.ProficiencyLevels, ShouldResemble, []model.ProficiencyLevel{model.LevelExpert})
				So(deps.lastFilters.AvailabilityDays, ShouldResemble, []int{1, 3})
				So(deps.lastFilters.MinRating, ShouldEqual, 4.0)
				So(deps.lastFilters.Location, ShouldEqual, "Berlin")
			})

			Convey("Then the body lists the matches", func() {
				var body struct {
					Matches []model.RankedMatch `json:"matches"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(len(body.Matches), ShouldEqual, 1)
				So(body.Matches[0].Candidate.ID, ShouldEqual, "bob")
			})
		})

		Convey("When the query is malformed", func() {
			So(do(h, http.MethodGet, "/v1/matches?limit=-1", "alice", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/v1/matches?day=monday", "alice", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/v1/matches?min_rating=high", "alice", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a filter fails validation", func() {
			rec := do(h, http.MethodGet, "/v1/matches?day=9", "alice", "")

			Convey("Then the failing field is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, `"fields"`)
			})
		})

		Convey("When the requester is unknown", func() {
			deps.err = model.ErrNotFound
			So(do(h, http.MethodGet, "/v1/matches", "ghost", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Decisions(t *testing.T) {
	Convey("Given the API over fake dependencies", t, func() {
		deps := &fakeDeps{}
		h := api.NewServer(deps, fakeStats{}).Handler()

		Convey("When alice favorites bob", func() {
			rec := do(h, http.MethodPost, "/v1/matches/bob/decision", "alice", `{"decision":"favorite"}`)

			Convey("Then the stored interaction is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTarget, ShouldEqual, "bob")
				var got model.MatchInteraction
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.Type, ShouldEqual, model.InteractionFavorite)
			})
		})

		Convey("When the decision is unknown or the body is broken", func() {
			So(do(h, http.MethodPost, "/v1/matches/bob/decision", "alice", `{"decision":"LIKE"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/v1/matches/bob/decision", "alice", `{"decision":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/v1/matches/bob/decision", "alice", `{"verdict":"PASS"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When alice unblocks bob", func() {
			So(do(h, http.MethodDelete, "/v1/matches/bob/block", "alice", "").Code, ShouldEqual, http.StatusNoContent)

			deps.err = model.ErrNotFound
			So(do(h, http.MethodDelete, "/v1/matches/bob/block", "alice", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When favorites are listed", func() {
			rec := do(h, http.MethodGet, "/v1/favorites", "alice", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastUser, ShouldEqual, "alice")
		})
	})
}

func TestServer_Operations(t *testing.T) {
	Convey("Given the API over fake dependencies", t, func() {
		deps := &fakeDeps{batch: model.BatchStats{RunID: "r1", Status: model.BatchCompleted}}
		h := api.NewServer(deps, fakeStats{}, api.WithRateLimit(0)).Handler()

		Convey("Then health, stats and metrics respond", func() {
			So(do(h, http.MethodGet, "/healthz", "", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/metrics", "", "").Code, ShouldEqual, http.StatusOK)

			rec := do(h, http.MethodGet, "/v1/stats", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"batch_state":"IDLE"`)
		})

		Convey("Then a batch can be triggered", func() {
			rec := do(h, http.MethodPost, "/v1/admin/batch", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"run_id":"r1"`)
		})

		Convey("Then an overlapping batch is a conflict", func() {
			deps.batch.Status = model.BatchSkipped
			So(do(h, http.MethodPost, "/v1/admin/batch", "", "").Code, ShouldEqual, http.StatusConflict)
		})

		Convey("Then retention reports what it purged", func() {
			rec := do(h, http.MethodPost, "/v1/admin/retention", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"purged":3`)
		})

		Convey("Then a stopped service is unavailable", func() {
			deps.err = service.ErrNotStarted
			So(do(h, http.MethodPost, "/v1/admin/retention", "", "").Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}
