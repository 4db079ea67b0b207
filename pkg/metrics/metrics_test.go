package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered sums the counter and gauge samples of a family whose labels
// include label (any label when empty).
func gathered(registry *prometheus.Registry, name, label string) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			match := label == ""
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					match = true
				}
			}
			if match {
				total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
			}
		}
	}
	return total
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with defaults on its own registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))
			m.windowsProcessed.WithLabelValues("saccade").Inc()

			Convey("Then collectors use the service namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
				found := false
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "locem_saccades_"), ShouldBeTrue)
					if f.GetName() == "locem_saccades_windows_processed_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When created with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("lab"),
				WithSubsystem("eyetracking"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"site": "paris"}),
				WithPrometheusRegistry(registry),
			)
			m.windowsDuplicate.Inc()

			Convey("Then names and labels follow them", func() {
				So(m.refreshInterval, ShouldEqual, 3*time.Second)
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
				So(gathered(registry, "lab_eyetracking_windows_duplicate_total", "paris"), ShouldEqual, 1)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["lab_eyetracking_windows_duplicate_total"], ShouldBeTrue)
			})
		})

		Convey("When options carry empty values", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(m.namespace, ShouldEqual, "locem")
				So(m.subsystem, ShouldEqual, "saccades")
				So(m.histogramBuckets, ShouldResemble, latencyBuckets)
				So(m.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When disabled", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))

			Convey("Then nothing is registered on the given registry", func() {
				m.saccadesDetected.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestDetectionMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When windows are recorded", func() {
			const name = "locem_saccades_windows_processed_total"
			before := gathered(GetRegistry(), name, "no_saccade")
			RecordWindowProcessed("no_saccade")
			RecordWindowProcessed("no_saccade")

			Convey("Then the status counter grows", func() {
				after := gathered(GetRegistry(), name, "no_saccade")
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When saccades are recorded", func() {
			total := gathered(GetRegistry(), "locem_saccades_saccades_detected_total", "")
			micro := gathered(GetRegistry(), "locem_saccades_microsaccades_detected_total", "")
			RecordSaccadesDetected(3, 1)
			RecordSaccadesDetected(0, 0)

			Convey("Then both counters move by the reported amounts", func() {
				So(gathered(GetRegistry(), "locem_saccades_saccades_detected_total", "")-total, ShouldEqual, 3)
				So(gathered(GetRegistry(), "locem_saccades_microsaccades_detected_total", "")-micro, ShouldEqual, 1)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordWindowDuplicate()
				RecordDetectionLatency(0.4)
				RecordDetectionError("degenerate")
				UpdateQueueSize(12)
				UpdateWorkerCount(4)
				RecordHTTPRequest("/windows", "POST", "202")
				RecordHTTPRequestDuration("/windows", "POST", "202", 1.5)
				UpdateRepositoryRecordsTotal(100)
				RecordRepositoryUpdateLatency(0.2)
				RecordRepositoryQueryLatency(0.1)
				UpdateQueueCapacity(1000)
				UpdateQueueUtilization(0.012)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(3)
				UpdateWorkerActiveCount(4)
				UpdateWorkerIdleCount(0)
				UpdateWorkerMessagesPerSecond(250)
				RecordWorkerProcessingLatency(0.8)
				RecordWorkerError()
				RecordErrorByComponent("worker", "repository_error")
				RecordErrorByType("repository_error", "high")
				RecordErrorByEndpoint("/detect", "POST", "degenerate")
				RecordErrorLatency("http", "degenerate", 0.3)
				UpdateSystemMemoryUsage(64 << 20)
				UpdateSystemGoroutineCount(40)
				RecordSystemGCPauseTime(0.05)
			}, ShouldNotPanic)
			So(gathered(GetRegistry(), "locem_saccades_queue_size", ""), ShouldEqual, 12)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		const name = "locem_saccades_queue_enqueue_total"
		before := gathered(GetRegistry(), name, "")

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordQueueEnqueue()
					RecordWindowProcessed("saccade")
					RecordHTTPRequest("/results", "GET", "200")
				}
			}()
		}
		wg.Wait()

		So(gathered(GetRegistry(), name, "")-before, ShouldEqual, 1000)
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global manager", t, func() {
		defer Configure()

		Convey("When it is configured with a namespace and buckets", func() {
			Configure(
				WithNamespace("lab"),
				WithHistogramBuckets([]float64{1, 5}),
				WithRefreshInterval(2*time.Second),
			)
			RecordWindowDuplicate()
			RecordDetectionLatency(3)

			Convey("Then the served registry uses them", func() {
				So(gathered(GetRegistry(), "lab_saccades_windows_duplicate_total", ""), ShouldEqual, 1)
				So(gathered(GetRegistry(), "locem_saccades_windows_duplicate_total", ""), ShouldEqual, 0)
				So(RefreshInterval(), ShouldEqual, 2*time.Second)

				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				var bounds []float64
				for _, f := range families {
					if f.GetName() == "lab_saccades_detection_latency_milliseconds" {
						for _, b := range f.GetMetric()[0].GetHistogram().GetBucket() {
							bounds = append(bounds, b.GetUpperBound())
						}
					}
				}
				So(bounds, ShouldResemble, []float64{1, 5})
			})
		})

		Convey("When it is configured disabled", func() {
			Configure(WithMetricsEnabled(false))

			Convey("Then recording works and nothing is served", func() {
				So(func() { RecordWindowProcessed("saccade") }, ShouldNotPanic)
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}
