package commands

import (
	"log/slog"
	"time"

	"bookmirror/internal/components/telemetry"
	"bookmirror/internal/mirrors"
	"bookmirror/internal/race"
	"bookmirror/lib/configutil"
	"bookmirror/lib/restyutil"
	"bookmirror/lib/serviceutil"
)

const ConfigName = "bookmirror.json5"

type Config struct {
	// Mirrors are base urls added after the built-in ones, entries that are not
	// usable urls are skipped with a warning.
	Mirrors []any `json:"mirrors"`
	Limit   int   `json:"limit"`
	// Timeout is the per request timeout in seconds.
	Timeout           float64 `json:"timeout"`
	RaceAllMirrors    *bool   `json:"race_all_mirrors"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	UserAgent         string  `json:"user_agent"`
	CloudflareBypass  *bool   `json:"cloudflare_bypass"`
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return race.DefaultTimeout
	}
	return time.Duration(c.Timeout * float64(time.Second))
}

func (c Config) raceAllMirrors() bool {
	return c.RaceAllMirrors == nil || *c.RaceAllMirrors
}

func (c Config) cloudflareBypass() bool {
	return c.CloudflareBypass == nil || *c.CloudflareBypass
}

func loadConfig() Config {
	cfg, err := configutil.ReadOptional[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func newTelemetryAPI() telemetry.API {
	return telemetry.NewSlogAPI(slog.Default())
}

func resolveRegistry(cfg Config) mirrors.Registry {
	reg, errs := mirrors.Resolve(&mirrors.UserConfig{Mirrors: cfg.Mirrors})
	for _, err := range errs {
		slog.Warn("skipping mirror", "err", err)
	}
	return reg
}

func newCoordinator(cfg Config, dumpDir string) *race.Coordinator {
	coordinatorCfg := race.Config{
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		CloudflareBypass:  cfg.cloudflareBypass(),
		FeedTimeout:       cfg.timeout(),
	}
	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			serviceutil.Fatal("failed to create dump directory", err)
		}
		coordinatorCfg.Dump = output
	}
	return race.NewCoordinator(coordinatorCfg, newTelemetryAPI())
}
