package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/carelens/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, k := range []string{
		"CARELENS_CONFIG",
		"CARELENS_ADDR",
		"CARELENS_DATA_DIR",
		"CARELENS_SCORED_FILE",
		"CARELENS_QC_FILE",
		"CARELENS_LOW_ACTIVITY_MINUTES",
		"CARELENS_MAX_REPORT_ROWS",
	} {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.DataDir, convey.ShouldEqual, "outputs")
				convey.So(cfg.LowActivityMinutes, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CARELENS_ADDR", ":9000")
			_ = os.Setenv("CARELENS_DATA_DIR", "/data/outputs")
			_ = os.Setenv("CARELENS_LOW_ACTIVITY_MINUTES", "45")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/data/outputs")
				convey.So(cfg.LowActivityMinutes, convey.ShouldEqual, 45)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			yamlContent := `
addr: ":9090"
scored_file: "scored.csv"
max_report_rows: 25
`
			tmpFile := filepath.Join(t.TempDir(), "carelens.yaml")
			convey.So(os.WriteFile(tmpFile, []byte(yamlContent), 0o600), convey.ShouldBeNil)

			_ = os.Setenv("CARELENS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ScoredFile, convey.ShouldEqual, "scored.csv")
				convey.So(cfg.MaxReportRows, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("CARELENS_MAX_REPORT_ROWS", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should surface an invalid-config error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
