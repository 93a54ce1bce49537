// Package config reads the toolkit configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"
)

type Config struct {
	Debug bool `yaml:"debug" env:"BE2BILL_DEBUG" env-default:"false"`

	Account struct {
		Identifier string `yaml:"identifier" env:"BE2BILL_IDENTIFIER" env-description:"merchant account identifier"`
		Password   string `yaml:"password" env:"BE2BILL_PASSWORD" env-description:"merchant secret used to sign requests"`
	} `yaml:"account"`

	Gateway struct {
		Environment string        `yaml:"environment" env:"BE2BILL_ENVIRONMENT" env-default:"sandbox" env-description:"production or sandbox"`
		URLs        []string      `yaml:"urls" env:"BE2BILL_URLS" env-separator:"," env-description:"custom base URLs, in failover order"`
		Switch      bool          `yaml:"switch_production_urls" env:"BE2BILL_SWITCH_URLS" env-default:"false"`
		Version     string        `yaml:"version" env:"BE2BILL_VERSION" env-default:"2.0"`
		Timeout     time.Duration `yaml:"timeout" env:"BE2BILL_TIMEOUT" env-default:"30s"`
	} `yaml:"gateway"`

	Batch struct {
		Delimiter string        `yaml:"delimiter" env:"BE2BILL_BATCH_DELIMITER" env-default:";"`
		Enclosure string        `yaml:"enclosure" env:"BE2BILL_BATCH_ENCLOSURE" env-default:"\""`
		Sleep     time.Duration `yaml:"sleep" env:"BE2BILL_BATCH_SLEEP" env-default:"0s"`
	} `yaml:"batch"`

	Database struct {
		Path string `yaml:"path" env:"BE2BILL_DB_PATH" env-default:"be2bill.db"`
	} `yaml:"database"`

	NATS struct {
		URL     string `yaml:"url" env:"BE2BILL_NATS_URL" env-description:"empty disables publishing"`
		Subject string `yaml:"subject" env:"BE2BILL_NATS_SUBJECT" env-default:"be2bill.batch.lines"`
	} `yaml:"nats"`

	Listen struct {
		Address        string `yaml:"address" env:"BE2BILL_LISTEN" env-default:":8080"`
		MetricsAddress string `yaml:"metrics_address" env:"BE2BILL_METRICS_LISTEN" env-default:""`
	} `yaml:"listen"`
}

// Load reads path when it exists and applies environment overrides. A
// missing file is not an error: everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Description lists every supported environment variable.
func Description() string {
	desc, _ := cleanenv.GetDescription(&Config{}, nil)
	return desc
}

func (c *Config) Validate() error {
	switch c.Gateway.Environment {
	case EnvProduction, EnvSandbox:
	default:
		return fmt.Errorf("unknown gateway environment %q", c.Gateway.Environment)
	}
	if len([]rune(c.Batch.Delimiter)) != 1 || len([]rune(c.Batch.Enclosure)) != 1 {
		return errors.New("batch delimiter and enclosure must be single characters")
	}
	return nil
}

// RequireCredentials fails when the account is not configured. Only
// commands that talk to the gateway or check hashes need it.
func (c *Config) RequireCredentials() error {
	if c.Account.Identifier == "" || c.Account.Password == "" {
		return errors.New("account identifier and password are required (BE2BILL_IDENTIFIER, BE2BILL_PASSWORD)")
	}
	return nil
}

func (c *Config) Delimiter() rune {
	return []rune(c.Batch.Delimiter)[0]
}

func (c *Config) Enclosure() rune {
	return []rune(c.Batch.Enclosure)[0]
}
