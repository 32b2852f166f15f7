// Package config loads the perfadvisor configuration. Analyzer sections
// are optional: a nil section means that pipeline stage is skipped, encoded
// in the type rather than probed through a generic key lookup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level perfadvisor configuration, a read-only snapshot
// for the duration of a run.
type Config struct {
	Code           *CodeConfig           `mapstructure:"code"`
	Database       *DatabaseConfig       `mapstructure:"database"`
	Infrastructure *InfrastructureConfig `mapstructure:"infrastructure"`
	Pipeline       PipelineConfig        `mapstructure:"pipeline"`
	Report         ReportConfig          `mapstructure:"report"`
}

// CodeConfig enables the code analyzer stage.
type CodeConfig struct {
	// ProfilePath is a pprof protobuf profile to read; empty skips profiling.
	ProfilePath string `mapstructure:"profile_path"`

	// SourcePaths are source trees to score for complexity.
	SourcePaths []string `mapstructure:"source_paths"`

	Thresholds CodeThresholds `mapstructure:"thresholds"`
}

// CodeThresholds tunes the code heuristics without a redeploy.
type CodeThresholds struct {
	ComplexityWarn             int     `mapstructure:"complexity_warn"`
	ComplexityHigh             int     `mapstructure:"complexity_high"`
	HotFunctionSeconds         float64 `mapstructure:"hot_function_seconds"`
	HotFunctionCriticalSeconds float64 `mapstructure:"hot_function_critical_seconds"`
}

// DatabaseConfig enables the database analyzer stage.
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn"`

	// Queries are explained one by one against the live database.
	Queries []string `mapstructure:"queries"`

	Thresholds DatabaseThresholds `mapstructure:"thresholds"`
}

// DatabaseThresholds tunes the database heuristics.
type DatabaseThresholds struct {
	SlowQueryMs     float64 `mapstructure:"slow_query_ms"`
	CriticalQueryMs float64 `mapstructure:"critical_query_ms"`
}

// InfrastructureConfig enables the infrastructure analyzer stage.
type InfrastructureConfig struct {
	Hosts      []HostConfig    `mapstructure:"hosts"`
	Thresholds InfraThresholds `mapstructure:"thresholds"`

	// ProbeTimeout bounds each per-host HTTP call.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// HostConfig names one host and its agent endpoints.
type HostConfig struct {
	ID         string `mapstructure:"id"`
	MetricsURL string `mapstructure:"metrics_url"`
	HealthURL  string `mapstructure:"health_url"`
}

// InfraThresholds tunes the infrastructure heuristics.
type InfraThresholds struct {
	CPUWarn     float64 `mapstructure:"cpu_warn"`
	CPUCritical float64 `mapstructure:"cpu_critical"`
	MemWarn     float64 `mapstructure:"mem_warn"`
	MemCritical float64 `mapstructure:"mem_critical"`
}

// PipelineConfig tunes orchestration behavior.
type PipelineConfig struct {
	// StageTimeout bounds each analyzer stage; zero disables the deadline.
	StageTimeout time.Duration `mapstructure:"stage_timeout"`

	// AutoApply marks safe quick-win tasks as applied.
	AutoApply bool `mapstructure:"auto_apply"`

	// AutoApplyKinds overrides the built-in safe-kind allow-list.
	AutoApplyKinds []string `mapstructure:"auto_apply_kinds"`

	// TopN bounds the report's top recommendation list.
	TopN int `mapstructure:"top_n"`
}

// ReportConfig tunes report emission.
type ReportConfig struct {
	// JSONPath is where the machine-readable report is written; empty
	// disables the JSON file.
	JSONPath string `mapstructure:"json_path"`

	Color bool `mapstructure:"color"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with defaults applied to every present section.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("pipeline.stage_timeout", DefaultStageTimeout)
	v.SetDefault("pipeline.top_n", DefaultTopN)
	v.SetDefault("report.color", true)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// A missing config file is not an error: every stage is simply skipped.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero-valued thresholds on present sections. Defaults
// live outside viper so that absent sections stay nil.
func (c *Config) applyDefaults() {
	if c.Code != nil {
		th := &c.Code.Thresholds
		if th.ComplexityWarn == 0 {
			th.ComplexityWarn = DefaultCodeThresholds.ComplexityWarn
		}
		if th.ComplexityHigh == 0 {
			th.ComplexityHigh = DefaultCodeThresholds.ComplexityHigh
		}
		if th.HotFunctionSeconds == 0 {
			th.HotFunctionSeconds = DefaultCodeThresholds.HotFunctionSeconds
		}
		if th.HotFunctionCriticalSeconds == 0 {
			th.HotFunctionCriticalSeconds = DefaultCodeThresholds.HotFunctionCriticalSeconds
		}
		for i, p := range c.Code.SourcePaths {
			c.Code.SourcePaths[i] = expandPath(p)
		}
		c.Code.ProfilePath = expandPath(c.Code.ProfilePath)
	}

	if c.Database != nil {
		th := &c.Database.Thresholds
		if th.SlowQueryMs == 0 {
			th.SlowQueryMs = DefaultDatabaseThresholds.SlowQueryMs
		}
		if th.CriticalQueryMs == 0 {
			th.CriticalQueryMs = DefaultDatabaseThresholds.CriticalQueryMs
		}
	}

	if c.Infrastructure != nil {
		th := &c.Infrastructure.Thresholds
		if th.CPUWarn == 0 {
			th.CPUWarn = DefaultInfraThresholds.CPUWarn
		}
		if th.CPUCritical == 0 {
			th.CPUCritical = DefaultInfraThresholds.CPUCritical
		}
		if th.MemWarn == 0 {
			th.MemWarn = DefaultInfraThresholds.MemWarn
		}
		if th.MemCritical == 0 {
			th.MemCritical = DefaultInfraThresholds.MemCritical
		}
		if c.Infrastructure.ProbeTimeout == 0 {
			c.Infrastructure.ProbeTimeout = DefaultProbeTimeout
		}
	}

	c.Report.JSONPath = expandPath(c.Report.JSONPath)
}

// validate rejects sections that are present but unusable, which would
// otherwise surface much later as an empty analyzer stage.
func (c *Config) validate() error {
	if c.Code != nil && c.Code.ProfilePath == "" && len(c.Code.SourcePaths) == 0 {
		return fmt.Errorf("code section needs profile_path or source_paths")
	}
	if c.Database != nil && c.Database.DSN == "" {
		return fmt.Errorf("database section needs a dsn")
	}
	if c.Infrastructure != nil && len(c.Infrastructure.Hosts) == 0 {
		return fmt.Errorf("infrastructure section needs at least one host")
	}
	return nil
}

// DBPath returns the full path to the SQLite run-history database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}
