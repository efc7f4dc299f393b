package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileSettings struct {
	HTTP struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr string `yaml:"addr"`
		DB   *int   `yaml:"db"`
	} `yaml:"redis"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
		Prefetch *int   `yaml:"prefetch"`
	} `yaml:"amqp"`
	Auth struct {
		Issuer      string   `yaml:"issuer"`
		AccessTTL   string   `yaml:"accessTTL"`
		RefreshTTL  string   `yaml:"refreshTTL"`
		FilterPaths []string `yaml:"filterPaths"`
		ForceExpire struct {
			KeyPrefix  string `yaml:"keyPrefix"`
			OpTimeout  string `yaml:"opTimeout"`
			FailClosed *bool  `yaml:"failClosed"`
		} `yaml:"forceExpire"`
		Throttle struct {
			Enabled     *bool  `yaml:"enabled"`
			MaxAttempts *int   `yaml:"maxAttempts"`
			Window      string `yaml:"window"`
			KeyPrefix   string `yaml:"keyPrefix"`
		} `yaml:"loginThrottle"`
		StoreTimeout string `yaml:"storeTimeout"`
		Events       struct {
			Enabled    *bool `yaml:"enabled"`
			BufferSize *int  `yaml:"bufferSize"`
		} `yaml:"events"`
		Metrics struct {
			Enabled *bool `yaml:"enabled"`
			Latency *bool `yaml:"latency"`
		} `yaml:"metrics"`
	} `yaml:"auth"`
}

func applyYAMLFile(s *Settings, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var f fileSettings
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&s.HTTPAddr, f.HTTP.Addr)
	setString(&s.LogLevel, f.Log.Level)
	setString(&s.RedisAddr, f.Redis.Addr)
	setString(&s.DatabaseDSN, f.Database.DSN)
	setString(&s.AMQPURL, f.AMQP.URL)
	setString(&s.AMQPExchange, f.AMQP.Exchange)
	setString(&s.AMQPQueue, f.AMQP.Queue)
	setString(&s.Auth.JWT.Issuer, f.Auth.Issuer)
	setString(&s.Auth.ForceExpire.KeyPrefix, f.Auth.ForceExpire.KeyPrefix)
	if f.Redis.DB != nil {
		s.RedisDB = *f.Redis.DB
	}
	if f.AMQP.Prefetch != nil {
		s.AMQPPrefetch = *f.AMQP.Prefetch
	}
	if f.Auth.FilterPaths != nil {
		s.Auth.Filter.Paths = f.Auth.FilterPaths
	}
	if f.Auth.ForceExpire.FailClosed != nil {
		s.Auth.ForceExpire.FailClosed = *f.Auth.ForceExpire.FailClosed
	}
	setString(&s.Auth.Throttle.KeyPrefix, f.Auth.Throttle.KeyPrefix)
	if f.Auth.Throttle.Enabled != nil {
		s.Auth.Throttle.Enabled = *f.Auth.Throttle.Enabled
	}
	if f.Auth.Throttle.MaxAttempts != nil {
		s.Auth.Throttle.MaxAttempts = *f.Auth.Throttle.MaxAttempts
	}
	if f.Auth.Events.Enabled != nil {
		s.Auth.Events.Enabled = *f.Auth.Events.Enabled
	}
	if f.Auth.Events.BufferSize != nil {
		s.Auth.Events.BufferSize = *f.Auth.Events.BufferSize
	}
	if f.Auth.Metrics.Enabled != nil {
		s.Auth.Metrics.Enabled = *f.Auth.Metrics.Enabled
	}
	if f.Auth.Metrics.Latency != nil {
		s.Auth.Metrics.EnableLatencyHistograms = *f.Auth.Metrics.Latency
	}

	for _, d := range []struct {
		dst  *time.Duration
		raw  string
		name string
	}{
		{&s.ShutdownTimeout, f.HTTP.ShutdownTimeout, "http.shutdownTimeout"},
		{&s.Auth.JWT.AccessTTL, f.Auth.AccessTTL, "auth.accessTTL"},
		{&s.Auth.JWT.RefreshTTL, f.Auth.RefreshTTL, "auth.refreshTTL"},
		{&s.Auth.ForceExpire.OpTimeout, f.Auth.ForceExpire.OpTimeout, "auth.forceExpire.opTimeout"},
		{&s.Auth.Throttle.Window, f.Auth.Throttle.Window, "auth.loginThrottle.window"},
		{&s.Auth.Store.OpTimeout, f.Auth.StoreTimeout, "auth.storeTimeout"},
	} {
		if err := setDuration(d.dst, d.raw); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
