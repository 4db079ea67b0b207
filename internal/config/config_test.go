package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/mszinte/locEMexp/internal/config"
	"github.com/mszinte/locEMexp/internal/domain/saccade"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Params(), convey.ShouldResemble, saccade.DefaultParams())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When metrics are disabled with custom buckets", func() {
			cfg := config.New()
			cfg.MetricsEnabled = false
			cfg.MetricsNamespace = ""
			cfg.MetricsBuckets = []float64{0.5, 1, 10}
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":            func(c *config.Config) { c.Addr = " " },
			"zero queue":            func(c *config.Config) { c.QueueSize = 0 },
			"zero results limit":    func(c *config.Config) { c.MaxResultsLimit = 0 },
			"unknown store":         func(c *config.Config) { c.Store = "postgres" },
			"sqlite without path":   func(c *config.Config) { c.Store, c.SQLitePath = config.StoreSQLite, "" },
			"zero sampling rate":    func(c *config.Config) { c.SamplingRate = 0 },
			"negative threshold":    func(c *config.Config) { c.VelocityThreshold = -6 },
			"zero min duration":     func(c *config.Config) { c.MinDuration = 0 },
			"negative merge":        func(c *config.Config) { c.MergeInterval = -1 },
			"negative micro limit":  func(c *config.Config) { c.MicrosaccadeAmplitude = -1 },
			"gap factor below one":  func(c *config.Config) { c.MaxGapFactor = 0.5 },
			"bad metrics namespace": func(c *config.Config) { c.MetricsNamespace = "eye-tracking" },
			"bad metrics subsystem": func(c *config.Config) { c.MetricsSubsystem = "1st" },
			"zero refresh interval": func(c *config.Config) { c.MetricsRefreshInterval = 0 },
			"repeated buckets":      func(c *config.Config) { c.MetricsBuckets = []float64{1, 5, 5} },
			"descending buckets":    func(c *config.Config) { c.MetricsBuckets = []float64{10, 1} },
			"bad label name":        func(c *config.Config) { c.MetricsLabels = map[string]string{"lab site": "paris"} },
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When it selects sqlite with a path", func() {
			cfg := config.New()
			cfg.Store = config.StoreSQLite
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
