// Package config loads the Sheratan runtime configuration from a YAML
// file and environment variables. Configuration is an explicit object
// handed to the store and bridge at construction; there is no process-wide
// mutable state, so tests and parallel deployments isolate themselves by
// constructing separate instances.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config models sheratan.yaml.
type Config struct {
	DataDir       string `yaml:"data_dir"`       // entity logs live here
	RelayOutDir   string `yaml:"relay_out_dir"`  // outbound mailbox
	RelayInDir    string `yaml:"relay_in_dir"`   // inbound mailbox
	SessionPrefix string `yaml:"session_prefix"` // session id namespace
	Port          string `yaml:"port"`           // HTTP listen port
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		DataDir:       "data",
		RelayOutDir:   "webrelay_out",
		RelayInDir:    "webrelay_in",
		SessionPrefix: "sheratan",
		Port:          "8000",
	}
}

// Load reads the YAML file at path (if it exists) over the defaults, then
// applies environment overrides. A .env file is honored the same way the
// process environment is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SHERATAN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SHERATAN_RELAY_OUT_DIR"); v != "" {
		cfg.RelayOutDir = v
	}
	if v := os.Getenv("SHERATAN_RELAY_IN_DIR"); v != "" {
		cfg.RelayInDir = v
	}
	if v := os.Getenv("SHERATAN_SESSION_PREFIX"); v != "" {
		cfg.SessionPrefix = v
	}
	if v := os.Getenv("SHERATAN_PORT"); v != "" {
		cfg.Port = v
	}
}

// EnsureDirs creates the data and relay directories if missing.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.RelayOutDir, c.RelayInDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	return nil
}
