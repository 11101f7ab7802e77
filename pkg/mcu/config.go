package mcu

import (
	"flag"
	"time"
)

// Config defines the simulated hardware.
type Config struct {
	// TicksPerSecond is the encoder rate of a wheel at full speed.
	TicksPerSecond float64 `toml:"ticks_per_second"`
	// UpdateInterval is the period of the encoder sampling timer.
	UpdateInterval time.Duration `toml:"update_interval"`
	// ArmSpeed is how fast (units/s) an arm axis moves to its target,
	// 0 means instantly.
	ArmSpeed float64 `toml:"arm_speed"`
}

// Defaults
const (
	DefaultTicksPerSecond float64       = 1000
	DefaultUpdateInterval time.Duration = time.Second
	DefaultArmSpeed       float64       = 1
)

var defaultConfig = Config{
	TicksPerSecond: DefaultTicksPerSecond,
	UpdateInterval: DefaultUpdateInterval,
	ArmSpeed:       DefaultArmSpeed,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.TicksPerSecond, "ticks-per-sec", defaultConfig.TicksPerSecond, "Encoder ticks per second at full speed.")
	flag.DurationVar(&defaultConfig.UpdateInterval, "update-interval", defaultConfig.UpdateInterval, "Encoder sampling interval.")
	flag.Float64Var(&defaultConfig.ArmSpeed, "arm-speed", defaultConfig.ArmSpeed, "Arm axis speed (units/s), 0 means instant.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewMCU creates the simulated MCU.
func (c *Config) NewMCU() *MCU {
	m := New()
	m.Config = *c
	if m.Config.UpdateInterval <= 0 {
		m.Config.UpdateInterval = DefaultUpdateInterval
	}
	return m
}
