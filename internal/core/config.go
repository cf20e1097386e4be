package core

import (
	"strings"
	"time"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
)

type Dashboard struct {
	Name       string `config:"name"`
	WebhookURL string `config:"webhook_url"`
}

type Webhook struct {
	TimeoutMs int `config:"timeout_ms"`
	Retries   int `config:"retries"`
	BackoffMs int `config:"backoff_ms"`
}

type Recordings struct {
	Dir string `config:"dir"`
}

type Pulsar struct {
	URL   string `config:"url"`
	Topic string `config:"topic"`
}

type Config struct {
	Addr        string     `config:"addr"`
	DatabaseURL string     `config:"database_url"`
	KeepaliveMs int        `config:"keepalive_ms"`
	LogLevel    string     `config:"log_level"`
	Dashboard   Dashboard  `config:"dashboard"`
	Webhook     Webhook    `config:"webhook"`
	Recordings  Recordings `config:"recordings"`
	Pulsar      Pulsar     `config:"pulsar"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:        ":3000",
		KeepaliveMs: int(DefaultKeepalive / time.Millisecond),
		LogLevel:    "info",
		Dashboard: Dashboard{
			Name: "Dashboard",
		},
		Webhook: Webhook{
			TimeoutMs: 10000,
			Retries:   2,
			BackoffMs: 500,
		},
		Recordings: Recordings{
			Dir: "public/temp",
		},
	}
}

// NewConfig loads path over the defaults. A sibling <name>.local.yml, when
// present, overrides path. An empty path yields the defaults.
func NewConfig(path string) (*Config, error) {
	appConfig := DefaultConfig()

	if path == "" {
		return appConfig, nil
	}

	c := config.New("doorphone")
	c.WithOptions(func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
	})

	c.AddDriver(yaml.Driver)

	if err := c.LoadFiles(path); err != nil {
		return nil, err
	}

	local := strings.TrimSuffix(strings.TrimSuffix(path, ".yml"), ".yaml") + ".local.yml"
	if err := c.LoadExists(local); err != nil {
		return nil, err
	}

	if err := c.BindStruct("", appConfig); err != nil {
		return nil, err
	}

	return appConfig, nil
}

func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveMs) * time.Millisecond
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutMs) * time.Millisecond
}

func (c *Config) WebhookBackoff() time.Duration {
	return time.Duration(c.Webhook.BackoffMs) * time.Millisecond
}
