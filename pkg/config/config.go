package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maxboels/quantum-tracer-il/pkg/control"
	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

// Config represents the host-side application configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Sampling SamplingConfig `yaml:"sampling"`
	Steering SteeringConfig `yaml:"steering"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Output   OutputConfig   `yaml:"output"`
	Failsafe FailsafeConfig `yaml:"failsafe"`
	Display  DisplayConfig  `yaml:"display"`
	Mock     MockConfig     `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// SamplingConfig contains the telemetry cadence.
type SamplingConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// SteeringConfig contains the steering channel calibration.
type SteeringConfig struct {
	MinHighUs     uint32  `yaml:"min_high_us"`
	MinPeriodUs   uint32  `yaml:"min_period_us"`
	NeutralDuty   float32 `yaml:"neutral_duty"`    // duty % at center
	HalfRangeDuty float32 `yaml:"half_range_duty"` // duty % from center to extreme
}

// ThrottleConfig contains the throttle channel calibration.
type ThrottleConfig struct {
	MinHighUs   uint32  `yaml:"min_high_us"`
	MinPeriodUs uint32  `yaml:"min_period_us"`
	MaxDuty     float32 `yaml:"max_duty"` // duty % at full throttle
}

// OutputConfig contains the actuator pulse range.
type OutputConfig struct {
	MinPulseUs     uint32 `yaml:"min_pulse_us"`
	NeutralPulseUs uint32 `yaml:"neutral_pulse_us"`
	MaxPulseUs     uint32 `yaml:"max_pulse_us"`
}

// FailsafeConfig contains the autonomous command watchdog settings.
type FailsafeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DisplayConfig contains trace history and rendering settings for the
// monitor tools.
type DisplayConfig struct {
	WindowSeconds int `yaml:"window_seconds"` // rolling trace window
	MaxPoints     int `yaml:"max_points"`     // downsample limit for rendering
}

// MockConfig contains simulated receiver settings for running host tools
// without hardware.
type MockConfig struct {
	Steering    float32       `yaml:"steering"`     // initial stick position [-1, 1]
	Throttle    float32       `yaml:"throttle"`     // initial stick position [0, 1]
	Sweep       bool          `yaml:"sweep"`        // sweep the sticks sinusoidally
	SweepPeriod time.Duration `yaml:"sweep_period"` // one full sweep cycle
}

// Default returns a default configuration matching the stock QuantumTracer
// calibration.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 115200,
		},
		Sampling: SamplingConfig{
			TickInterval: 33 * time.Millisecond, // ~30 Hz
		},
		Steering: SteeringConfig{
			MinHighUs:     200,
			MinPeriodUs:   2000,
			NeutralDuty:   7.0,
			HalfRangeDuty: 2.5,
		},
		Throttle: ThrottleConfig{
			MinHighUs:   20,
			MinPeriodUs: 200,
			MaxDuty:     70.0,
		},
		Output: OutputConfig{
			MinPulseUs:     1000,
			NeutralPulseUs: 1500,
			MaxPulseUs:     2000,
		},
		Failsafe: FailsafeConfig{
			Timeout: 500 * time.Millisecond,
		},
		Display: DisplayConfig{
			WindowSeconds: 10,
			MaxPoints:     1000,
		},
		Mock: MockConfig{
			Steering:    0.0,
			Throttle:    0.0,
			Sweep:       false,
			SweepPeriod: 4 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Sampling.TickInterval == 0 {
		c.Sampling.TickInterval = def.Sampling.TickInterval
	}

	if c.Steering.MinHighUs == 0 {
		c.Steering.MinHighUs = def.Steering.MinHighUs
	}
	if c.Steering.MinPeriodUs == 0 {
		c.Steering.MinPeriodUs = def.Steering.MinPeriodUs
	}
	if c.Steering.NeutralDuty == 0 {
		c.Steering.NeutralDuty = def.Steering.NeutralDuty
	}
	if c.Steering.HalfRangeDuty == 0 {
		c.Steering.HalfRangeDuty = def.Steering.HalfRangeDuty
	}

	if c.Throttle.MinHighUs == 0 {
		c.Throttle.MinHighUs = def.Throttle.MinHighUs
	}
	if c.Throttle.MinPeriodUs == 0 {
		c.Throttle.MinPeriodUs = def.Throttle.MinPeriodUs
	}
	if c.Throttle.MaxDuty == 0 {
		c.Throttle.MaxDuty = def.Throttle.MaxDuty
	}

	if c.Output.MinPulseUs == 0 {
		c.Output.MinPulseUs = def.Output.MinPulseUs
	}
	if c.Output.NeutralPulseUs == 0 {
		c.Output.NeutralPulseUs = def.Output.NeutralPulseUs
	}
	if c.Output.MaxPulseUs == 0 {
		c.Output.MaxPulseUs = def.Output.MaxPulseUs
	}

	if c.Failsafe.Timeout == 0 {
		c.Failsafe.Timeout = def.Failsafe.Timeout
	}

	if c.Display.WindowSeconds == 0 {
		c.Display.WindowSeconds = def.Display.WindowSeconds
	}
	if c.Display.MaxPoints == 0 {
		c.Display.MaxPoints = def.Display.MaxPoints
	}

	if c.Mock.SweepPeriod == 0 {
		c.Mock.SweepPeriod = def.Mock.SweepPeriod
	}
}

// SteeringCalibration converts the steering section into the capture
// package's calibration type.
func (c *Config) SteeringCalibration() pwmcap.SteeringCalibration {
	return pwmcap.SteeringCalibration{
		MinHighUs:     c.Steering.MinHighUs,
		MinPeriodUs:   c.Steering.MinPeriodUs,
		NeutralDuty:   c.Steering.NeutralDuty,
		HalfRangeDuty: c.Steering.HalfRangeDuty,
	}
}

// ThrottleCalibration converts the throttle section into the capture
// package's calibration type.
func (c *Config) ThrottleCalibration() pwmcap.ThrottleCalibration {
	return pwmcap.ThrottleCalibration{
		MinHighUs:   c.Throttle.MinHighUs,
		MinPeriodUs: c.Throttle.MinPeriodUs,
		MaxDuty:     c.Throttle.MaxDuty,
	}
}

// ServoRange converts the output section into the control package's pulse
// range type.
func (c *Config) ServoRange() control.ServoRange {
	return control.ServoRange{
		MinUs:     c.Output.MinPulseUs,
		NeutralUs: c.Output.NeutralPulseUs,
		MaxUs:     c.Output.MaxPulseUs,
	}
}
