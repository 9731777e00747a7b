// Package config loads server configuration by layering defaults, an
// optional YAML file, STUDYLOG_ environment variables and command-line
// flags, later layers winning.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the full server configuration.
type Config struct {
	Listen string   `koanf:"listen"`
	DB     string   `koanf:"db"`
	Repos  string   `koanf:"repos"`
	CORS   []string `koanf:"cors"`

	Scheduler Scheduler `koanf:"scheduler"`
}

// Scheduler holds the revision scheduling policy knobs.
type Scheduler struct {
	// DayZero records each study session as a completed same-day
	// revision on the topic.
	DayZero bool `koanf:"day_zero"`

	// Offsets is the default set of revision day offsets applied
	// when a session does not name its own. Empty means a session
	// without offsets schedules no revisions.
	Offsets []int `koanf:"offsets"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Listen: ":8080",
		DB:     "studylog.db",
		Repos:  "repos",
		CORS:   []string{"*"},
		Scheduler: Scheduler{
			DayZero: true,
		},
	}
}

// envPrefix namespaces environment variables; a double underscore
// separates nesting levels so keys like db stay single words:
// STUDYLOG_SCHEDULER__DAY_ZERO -> scheduler.day_zero.
const envPrefix = "STUDYLOG_"

// Load builds the configuration. path may be empty to skip the file
// layer; flags may be nil to skip the flag layer.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
