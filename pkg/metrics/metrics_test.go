package metrics_test

import (
	"testing"

	"github.com/helixhq/helix/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given manager construction", t, func() {
		Convey("A manager registers on a supplied registry without panicking", func() {
			registry := prometheus.NewRegistry()
			So(func() {
				metrics.NewManager(metrics.WithPrometheusRegistry(registry))
			}, ShouldNotPanic)
		})

		Convey("Options are applied", func() {
			registry := prometheus.NewRegistry()
			So(func() {
				metrics.NewManager(
					metrics.WithPrometheusRegistry(registry),
					metrics.WithNamespace("helixtest"),
					metrics.WithSubsystem("unit"),
					metrics.WithHistogramBuckets([]float64{1, 5, 10}),
					metrics.WithMetricsEnabled(true),
				)
			}, ShouldNotPanic)
		})

		Convey("Registering the same namespace twice on one registry panics", func() {
			registry := prometheus.NewRegistry()
			metrics.NewManager(metrics.WithPrometheusRegistry(registry))
			So(func() {
				metrics.NewManager(metrics.WithPrometheusRegistry(registry))
			}, ShouldPanic)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Business helpers record without panicking", func() {
			So(func() {
				metrics.RecordReadinessComputation()
				metrics.RecordReadinessFailure()
				metrics.RecordReadinessDuration(12.5)
				metrics.RecordFetchLatency("confidence_snapshot", 3.2)
				metrics.RecordConfidenceUpdate()
				metrics.RecordPointsAwarded(28)
				metrics.RecordContributionAccepted()
				metrics.RecordContributionDropped()
				metrics.RecordContributionDuplicate()
			}, ShouldNotPanic)
		})

		Convey("Store helpers record without panicking", func() {
			So(func() {
				metrics.RecordStoreOperationLatency("confidence_snapshot", 0.4)
				metrics.RecordStoreError("points_append")
				metrics.UpdateTotalEmployees(42)
			}, ShouldNotPanic)
		})

		Convey("Queue and worker helpers record without panicking", func() {
			So(func() {
				metrics.UpdateQueueCapacity(1000)
				metrics.UpdateQueueSize(10)
				metrics.UpdateQueueUtilization(0.01)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordQueueEnqueueError()
				metrics.RecordQueueProcessingLatency(0.2)
				metrics.UpdateWorkerActiveCount(4)
				metrics.UpdateWorkerIdleCount(0)
				metrics.UpdateWorkerMessagesPerSecond(120)
				metrics.RecordWorkerProcessingLatency(1.5)
				metrics.RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("HTTP, error, and system helpers record without panicking", func() {
			So(func() {
				metrics.RecordHTTPRequest("/readiness/", "GET", "200")
				metrics.RecordHTTPRequestDuration("/readiness/", "GET", "200", 2.1)
				metrics.RecordErrorByComponent("worker", "plan_invalid")
				metrics.RecordErrorByEndpoint("/contributions", "POST", "bad_request")
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(32)
				metrics.RecordSystemGCPauseTime(0.8)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed and gathers our metrics", func() {
			registry := metrics.GetRegistry()
			So(registry, ShouldNotBeNil)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)

			found := false
			for _, family := range families {
				if family.GetName() == "helix_readiness_computations_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
