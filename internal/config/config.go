// Package config resolves runtime configuration from defaults, an optional
// YAML file and environment overrides. Key material values are read here,
// once, and handed to the security layer as plain fields; nothing below
// the config layer touches the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Runner struct {
		Ticker          string `yaml:"ticker"`
		IntervalMinutes int    `yaml:"interval_minutes"`
		Mode            string `yaml:"mode"` // "once" or "loop"
		Encrypt         bool   `yaml:"encrypt"`
		ResultsDir      string `yaml:"results_dir"`
		ProducerCommand string `yaml:"producer_command"`
	} `yaml:"runner"`
	Security struct {
		// Names of the environment variables the key material is read
		// from. The resolved values land in Key and Secret.
		KeyEnvVar    string `yaml:"key_env_var"`
		SecretEnvVar string `yaml:"secret_env_var"`
		Key          string `yaml:"-"`
		Secret       string `yaml:"-"`
	} `yaml:"security"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Runner.Ticker = "RELIANCE.NS"
	c.Runner.IntervalMinutes = 60
	c.Runner.Mode = "once"
	c.Runner.Encrypt = false
	c.Runner.ResultsDir = "./results"
	c.Security.KeyEnvVar = "ENCRYPTION_KEY"
	c.Security.SecretEnvVar = "OPENAI_API_KEY"
	return c
}

// Load builds the configuration from defaults, the YAML file named by
// TRADING_CONFIG if present, and environment overrides, in that order.
// A config file that cannot be read or parsed is reported through the
// error; the returned Config is still usable, built from defaults and
// the environment alone.
func Load() (Config, error) {
	c := defaultConfig()
	var loadErr error
	if path := os.Getenv("TRADING_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err != nil:
			loadErr = fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				loadErr = fmt.Errorf("config: parse %s: %w", path, err)
				// A partial unmarshal may have clobbered defaults.
				c = defaultConfig()
			}
		}
	}
	if v := os.Getenv("TRADING_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRADING_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("TRADING_TICKER"); v != "" {
		c.Runner.Ticker = v
	}
	if v := os.Getenv("TRADING_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Runner.IntervalMinutes = n
		}
	}
	if v := os.Getenv("TRADING_MODE"); v != "" {
		c.Runner.Mode = v
	}
	if v := os.Getenv("TRADING_ENCRYPT"); v == "1" || v == "true" {
		c.Runner.Encrypt = true
	}
	if v := os.Getenv("TRADING_RESULTS_DIR"); v != "" {
		c.Runner.ResultsDir = v
	}
	if v := os.Getenv("TRADING_PRODUCER"); v != "" {
		c.Runner.ProducerCommand = v
	}

	// Key material values, read exactly once per process.
	c.Security.Key = os.Getenv(c.Security.KeyEnvVar)
	c.Security.Secret = os.Getenv(c.Security.SecretEnvVar)
	return c, loadErr
}
