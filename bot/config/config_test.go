package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/carhub/core/config"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultBrokerName, cfg.Broker.Name)
	require.Equal(t, coreconfig.StringList{DefaultBrokerPhone}, cfg.Broker.Phones)
	require.Equal(t, DefaultChannel, cfg.Broker.Channel)
	require.Equal(t, BackendMemory, cfg.Session.Backend)
	require.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	require.Equal(t, DefaultSweepInterval, cfg.Session.SweepInterval)
	require.False(t, cfg.Intake.Confirm)
	require.Equal(t, coreconfig.DefaultHealthPort, cfg.CoreConfig().Health.Port)
	require.Same(t, &cfg.Core, cfg.CoreConfig())
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := writeYAML(t, `
telegram:
  token: "from-file"
  admin_ids: [111, 222]
broker:
  name: "Test Hub"
  phones: ["+251900000001", "+251900000002"]
  channel: "@TestChannel"
session:
  backend: dynamodb
  table: carhub-sessions
  ttl: 2h
intake:
  confirm: true
database:
  host: db
  name: carhub
`)
	t.Setenv("BROKER_PHONES", "+251911111111, +251922222222")
	t.Setenv("ADMIN_IDS", "[333]")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.Core.Telegram.Token)
	require.Equal(t, coreconfig.IDList{333}, cfg.Core.Telegram.AdminIDs)
	require.Equal(t, "Test Hub", cfg.Broker.Name)
	require.Equal(t, coreconfig.StringList{"+251911111111", "+251922222222"}, cfg.Broker.Phones)
	require.Equal(t, "@TestChannel", cfg.Broker.Channel)
	require.Equal(t, BackendDynamoDB, cfg.Session.Backend)
	require.Equal(t, "carhub-sessions", cfg.Session.Table)
	require.Equal(t, 2*time.Hour, cfg.Session.TTL)
	require.True(t, cfg.Intake.Confirm)
	require.Equal(t, "db", cfg.Database.Host)
}

func TestNormalizeRejects(t *testing.T) {
	base := func() *Config {
		return &Config{Core: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	}

	c := base()
	c.Session.Backend = "redis"
	require.ErrorContains(t, c.Normalize(), "invalid session.backend")

	c = base()
	c.Session.Backend = "DynamoDB"
	require.ErrorContains(t, c.Normalize(), "session.table")

	c = base()
	c.Session.TTL = -time.Second
	require.Error(t, c.Normalize())

	require.Error(t, (&Config{}).Normalize(), "token is required")
}

func TestNormalizeTrimsPhones(t *testing.T) {
	c := &Config{Core: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	c.Broker.Phones = coreconfig.StringList{" ", "+251933333333 "}
	require.NoError(t, c.Normalize())
	require.Equal(t, coreconfig.StringList{"+251933333333"}, c.Broker.Phones)
}
