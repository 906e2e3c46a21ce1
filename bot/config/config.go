// Package config holds the car hub bot configuration: the reusable core
// settings plus broker, session and questionnaire options.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/carhub/core/config"
	"github.com/m3rciful/carhub/core/database"
)

// Defaults used when nothing is configured.
const (
	DefaultBrokerName    = "Addis Car Hub"
	DefaultBrokerPhone   = "+251912345678"
	DefaultChannel       = "@AddisCarHub"
	DefaultSessionTTL    = 24 * time.Hour
	DefaultSweepInterval = 10 * time.Minute
)

// Session backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// BrokerConfig is the public contact block and the target channel.
type BrokerConfig struct {
	Name    string                `yaml:"name" envconfig:"BROKER_NAME"`
	Phones  coreconfig.StringList `yaml:"phones" envconfig:"BROKER_PHONES"`
	Channel string                `yaml:"channel" envconfig:"ADMIN_CHANNEL"`
}

// SessionConfig selects and tunes the conversation store.
type SessionConfig struct {
	Backend       string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
	// Table is the DynamoDB table name for the dynamodb backend.
	Table string `yaml:"table" envconfig:"SESSION_TABLE"`
}

// IntakeConfig tunes the questionnaire.
type IntakeConfig struct {
	// Confirm shows a review screen before posting.
	Confirm bool `yaml:"confirm" envconfig:"INTAKE_CONFIRM"`
}

// Config is the full bot configuration.
type Config struct {
	Core     coreconfig.Config `yaml:",inline"`
	Database database.Config   `yaml:"database"`
	Broker   BrokerConfig      `yaml:"broker"`
	Session  SessionConfig     `yaml:"session"`
	Intake   IntakeConfig      `yaml:"intake"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads the YAML file at path (optional) and the environment, then
// validates the result. The database section is validated separately by
// the commands that need it.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize applies defaults and validates the bot sections.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Core); err != nil {
		return err
	}

	c.Broker.Name = strings.TrimSpace(c.Broker.Name)
	if c.Broker.Name == "" {
		c.Broker.Name = DefaultBrokerName
	}
	phones := c.Broker.Phones[:0]
	for _, p := range c.Broker.Phones {
		if p = strings.TrimSpace(p); p != "" {
			phones = append(phones, p)
		}
	}
	c.Broker.Phones = phones
	if len(c.Broker.Phones) == 0 {
		c.Broker.Phones = coreconfig.StringList{DefaultBrokerPhone}
	}
	c.Broker.Channel = strings.TrimSpace(c.Broker.Channel)
	if c.Broker.Channel == "" {
		c.Broker.Channel = DefaultChannel
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if c.Session.Backend == "" {
		c.Session.Backend = BackendMemory
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.SweepInterval <= 0 {
		c.Session.SweepInterval = DefaultSweepInterval
	}
	switch c.Session.Backend {
	case BackendMemory:
	case BackendDynamoDB:
		if strings.TrimSpace(c.Session.Table) == "" {
			return fmt.Errorf("session.table is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, dynamodb", c.Session.Backend)
	}
	return nil
}
