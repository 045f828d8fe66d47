package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/clipscout/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CLIPSCOUT_ADDR", ":8080")
			_ = os.Setenv("CLIPSCOUT_QUEUE_SIZE", "64")
			_ = os.Setenv("CLIPSCOUT_WORKER_COUNT", "16")
			_ = os.Setenv("CLIPSCOUT_EVALUATION_TEMPERATURE", "0.5")
			_ = os.Setenv("CLIPSCOUT_CONCURRENT_HIGHLIGHTS", "true")
			_ = os.Setenv("CLIPSCOUT_INFERENCE_API_KEY", "sk-test")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.EvaluationTemperature, convey.ShouldEqual, 0.5)
				convey.So(cfg.ConcurrentHighlights, convey.ShouldBeTrue)
				convey.So(cfg.InferenceAPIKey, convey.ShouldEqual, "sk-test")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
log_format: json
postgres_dsn: "postgres://localhost/clipscout"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CLIPSCOUT_CONFIG", tmpFile)
			_ = os.Setenv("CLIPSCOUT_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.PostgresDSN, convey.ShouldEqual, "postgres://localhost/clipscout")
				convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CLIPSCOUT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CLIPSCOUT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CLIPSCOUT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, v := range []string{
		"CLIPSCOUT_CONFIG",
		"CLIPSCOUT_ADDR",
		"CLIPSCOUT_QUEUE_SIZE",
		"CLIPSCOUT_WORKER_COUNT",
		"CLIPSCOUT_EVALUATION_TEMPERATURE",
		"CLIPSCOUT_CONCURRENT_HIGHLIGHTS",
		"CLIPSCOUT_INFERENCE_API_KEY",
	} {
		_ = os.Unsetenv(v)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "clipscout-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}
