package engineconfig

import (
	"io"

	"gopkg.in/yaml.v3"

	"oss.nandlabs.io/enforcer/config"
)

const (
	// DefaultWorkerCount is used when no configuration source sets WorkerCount.
	DefaultWorkerCount = 4
	// DefaultPopRetryLogThreshold is used when no configuration source sets
	// PopRetryLogThreshold.
	DefaultPopRetryLogThreshold = 10
)

// Environment variable names consulted by FromEnv and ApplyEnvOverrides.
// These always take precedence over a YAML document or Properties value.
const (
	EnvWorkerCount          = "ENFORCER_WORKER_COUNT"
	EnvPopRetryLogThreshold = "ENFORCER_POP_RETRY_LOG_THRESHOLD"
)

// Config holds the scheduler engine's own tunables.
type Config struct {
	// WorkerCount is the number of workerpool.Pool worker goroutines to run.
	WorkerCount int `yaml:"workerCount"`
	// PopRetryLogThreshold is the number of consecutive spurious Pop wakes a
	// worker may observe before workerpool logs a warning that something may
	// be wrong with wakeup delivery.
	PopRetryLogThreshold int `yaml:"popRetryLogThreshold"`
}

// Default returns a Config populated with the package's default tunables.
func Default() Config {
	return Config{
		WorkerCount:          DefaultWorkerCount,
		PopRetryLogThreshold: DefaultPopRetryLogThreshold,
	}
}

// Load reads a YAML document from r into a Config seeded with defaults for
// any field the document omits, then applies environment variable
// overrides.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return ApplyEnvOverrides(cfg), nil
}

// FromProperties builds a Config from a config.Configuration (typically a
// *config.Properties loaded from a properties file), falling back to
// defaults for absent keys, then applies environment variable overrides.
func FromProperties(props config.Configuration) (Config, error) {
	cfg := Default()
	workerCount, err := props.GetAsInt("workerCount", cfg.WorkerCount)
	if err != nil {
		return Config{}, err
	}
	threshold, err := props.GetAsInt("popRetryLogThreshold", cfg.PopRetryLogThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.WorkerCount = workerCount
	cfg.PopRetryLogThreshold = threshold
	return ApplyEnvOverrides(cfg), nil
}

// ApplyEnvOverrides returns a copy of cfg with any set environment variable
// overriding the corresponding field. Invalid environment values are
// ignored, leaving cfg's existing value in place.
func ApplyEnvOverrides(cfg Config) Config {
	if v, err := config.GetEnvAsInt(EnvWorkerCount, cfg.WorkerCount); err == nil {
		cfg.WorkerCount = v
	}
	if v, err := config.GetEnvAsInt(EnvPopRetryLogThreshold, cfg.PopRetryLogThreshold); err == nil {
		cfg.PopRetryLogThreshold = v
	}
	return cfg
}
