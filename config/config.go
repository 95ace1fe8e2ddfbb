// Package config loads the settings of the pulse tools: defaults, then an
// optional YAML file, then PULSE_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/sim"
	"github.com/plus3/pulse/stash"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "PULSE_"

type Config struct {
	Log      Log      `yaml:"log" envPrefix:"LOG_"`
	Tick     Tick     `yaml:"tick" envPrefix:"TICK_"`
	Observer Observer `yaml:"observer" envPrefix:"OBSERVER_"`

	Stash          stash.Config                   `yaml:"stash" envPrefix:"STASH_"`
	StashItems     coroutine.StashItemsConfig     `yaml:"stash_items" envPrefix:"STASH_ITEMS_"`
	EnterLevelArea coroutine.EnterLevelAreaConfig `yaml:"enter_level_area" envPrefix:"ENTER_"`
	Sim            sim.Config                     `yaml:"sim" envPrefix:"SIM_"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Tick struct {
	// Interval is the time between two ticks.
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	// Duration stops the run after this long; 0 runs until interrupted.
	Duration time.Duration `yaml:"duration" env:"DURATION"`
}

type Observer struct {
	// Addr is the listen address of the event stream; empty disables it.
	Addr string `yaml:"addr" env:"ADDR"`
}

func Default() Config {
	return Config{
		Log:   Log{Level: "info", Format: "text"},
		Tick:  Tick{Interval: 100 * time.Millisecond},
		Stash: stash.DefaultConfig(),
		StashItems: coroutine.StashItemsConfig{
			OpenInterval: time.Second,
			Consolidate:  true,
			Timeout:      2 * time.Minute,
		},
		EnterLevelArea: coroutine.EnterLevelAreaConfig{
			Timeout: 2 * time.Minute,
		},
		Sim: sim.DefaultConfig(),
	}
}

// Load returns the defaults overlaid with the file at path, if path is not
// empty, and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the tools cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Tick.Interval <= 0 {
		errs = append(errs, errors.New("tick.interval must be positive"))
	}
	if c.Stash.Pages <= 0 {
		errs = append(errs, errors.New("stash.pages must be positive"))
	}
	if c.Sim.Speed <= 0 {
		errs = append(errs, errors.New("sim.speed must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
