package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	envConfig    = "MPCEXTRACT_CONFIG"
	envOutputDir = "MPCEXTRACT_OUTPUT_DIR"
	envJobs      = "MPCEXTRACT_JOBS"
	envLogLevel  = "MPCEXTRACT_LOG_LEVEL"
)

// Config represents the mpcextract configuration file (~/.config/mpcextract/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	OutputDir string `yaml:"output_dir"`
	Jobs      *int   `yaml:"jobs"`
	Mmap      *bool  `yaml:"mmap"`
	KeepGoing *bool  `yaml:"keep_going"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string   `yaml:"server_address"`
	RateLimit     *float64 `yaml:"rate_limit"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mpcextract", "config.yaml")
}

// LoadConfig reads the config file and overlays the environment. A missing
// default file yields a zero Config; a missing or malformed explicit file is
// an error.
func LoadConfig(explicit string) (Config, error) {
	path := strings.TrimSpace(explicit)
	required := path != ""
	if !required {
		path = configPath()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case required || !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv lets MPCEXTRACT_* variables override file values.
func (cfg *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(envOutputDir)); v != "" {
		cfg.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envJobs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: want a positive integer, got %q", envJobs, v)
		}
		cfg.Jobs = &n
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// applyLogConfig applies config defaults to the logging flags
// when the corresponding CLI flag was not explicitly set.
func applyLogConfig(c *cli.Command, cfg Config, level, format *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		*level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		*format = cfg.LogFormat
	}
}

// applyExtractConfig applies config defaults to extract options.
func applyExtractConfig(c *cli.Command, cfg Config, opts *extractOptions) {
	if cfg.OutputDir != "" && !c.IsSet("output") {
		opts.outputDir = cfg.OutputDir
	}
	if cfg.Jobs != nil && !c.IsSet("jobs") {
		opts.jobs = *cfg.Jobs
	}
	if cfg.Mmap != nil && !c.IsSet("mmap") {
		opts.mmap = *cfg.Mmap
	}
	if cfg.KeepGoing != nil && !c.IsSet("keep-going") {
		opts.keepGoing = *cfg.KeepGoing
	}
}

// applyServeConfig applies config defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, rateLimit *float64, mmap *bool) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.RateLimit != nil && !c.IsSet("rate-limit") {
		*rateLimit = *cfg.RateLimit
	}
	if cfg.Mmap != nil && !c.IsSet("mmap") {
		*mmap = *cfg.Mmap
	}
}
