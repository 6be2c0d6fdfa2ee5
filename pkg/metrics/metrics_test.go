package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.decisions.WithLabelValues("FAVORITE").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_decisions_total")
			})
		})

		Convey("When two managers share a registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording decisions", func() {
			before := testutil.ToFloat64(globalManager.decisions.WithLabelValues("PASS"))
			RecordDecision("PASS")
			RecordDecision("PASS")

			Convey("Then the labelled counter grows", func() {
				So(testutil.ToFloat64(globalManager.decisions.WithLabelValues("PASS"))-before, ShouldEqual, 2.0)
			})
		})

		Convey("When publishing a batch result", func() {
			UpdateBatchRunning(true)
			So(testutil.ToFloat64(globalManager.batchRunning), ShouldEqual, 1.0)
			UpdateBatchRunning(false)
			UpdateBatchResult(3, 12, 0.75)

			Convey("Then the gauges reflect it", func() {
				So(testutil.ToFloat64(globalManager.batchRunning), ShouldEqual, 0.0)
				So(testutil.ToFloat64(globalManager.batchTotalMatches), ShouldEqual, 12.0)
				So(testutil.ToFloat64(globalManager.batchGenerationRate), ShouldEqual, 0.75)
			})
		})

		Convey("When recording a skipped batch run", func() {
			before := testutil.CollectAndCount(globalManager.batchDuration)
			RecordBatchRun("skipped", 0)

			Convey("Then no duration is observed", func() {
				So(testutil.CollectAndCount(globalManager.batchDuration), ShouldEqual, before)
				So(testutil.ToFloat64(globalManager.batchRuns.WithLabelValues("skipped")), ShouldBeGreaterThanOrEqualTo, 1.0)
			})
		})

		Convey("Then every helper is safe to call", func() {
			So(func() {
				RecordSuggestion(3.5)
				RecordCandidatesScored(10)
				RecordScoringError()
				RecordBatchUserFailure()
				RecordNotification("enqueued")
				UpdateQueueSize(1)
				UpdateQueueCapacity(100)
				UpdateWorkerCount(2)
				RecordDeliveryLatency(1.2)
				UpdateBreakerState("notifications", 0)
				RecordRetentionPurged(4)
				RecordStoreQueryLatency("query_candidates", 2)
				RecordHTTPRequest("/v1/matches", "GET", "200")
				RecordHTTPRequestDuration("/v1/matches", "GET", "200", 5)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
