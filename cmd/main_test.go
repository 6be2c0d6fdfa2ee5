package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/adapters/http/api"
	app "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestOpenStore(t *testing.T) {
	convey.Convey("Given the memory store with seeding enabled", t, func() {
		cfg := config.New()
		cfg.SeedPeople = 25

		store, closeStore, err := openStore(context.Background(), cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer closeStore()

		convey.Convey("Then the synthetic people are queryable", func() {
			p, err := store.GetPerson(context.Background(), "user-00003")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.ID, convey.ShouldEqual, "user-00003")
		})
	})
}

func TestWiring(t *testing.T) {
	convey.Convey("Given a service wired from the default config", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.SeedPeople = 40

		store, closeStore, err := openStore(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer closeStore()

		svc := app.New(serviceOptions(cfg, store, nil, logger.Nop())...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		h := api.NewServer(svc, svc, api.WithRateLimit(cfg.RateLimitPerMinute)).Handler()

		convey.Convey("When a seeded person asks for matches over HTTP", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/matches?limit=3", nil)
			req.Header.Set(api.UserIDHeader, "user-00001")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			convey.Convey("Then the request succeeds", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the batch is triggered over HTTP", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/admin/batch", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			convey.Convey("Then it completes", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"status":"completed"`)
			})
		})

		convey.Convey("When the service metrics updater runs until cancelled", func() {
			uctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(uctx, svc) }, convey.ShouldNotPanic)
		})
	})
}
