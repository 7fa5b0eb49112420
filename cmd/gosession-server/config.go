package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/password"
	"gopkg.in/yaml.v3"
)

// serverConfig is the YAML file layout.
type serverConfig struct {
	Addr            string           `yaml:"addr"`
	MetricsPath     string           `yaml:"metrics_path"`
	ShutdownTimeout time.Duration    `yaml:"shutdown_timeout"`
	Log             logConfig        `yaml:"log"`
	Session         goSession.Config `yaml:"session"`
	Password        password.Config  `yaml:"password"`
	Users           []userConfig     `yaml:"users"`
}

type logConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// userConfig carries either a PHC hash or, for local setups, a plaintext
// password that is hashed at startup.
type userConfig struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
	Password     string `yaml:"password"`
}

func defaultServerConfig() serverConfig {
	cfg := goSession.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Audit.Enabled = true

	return serverConfig{
		Addr:            ":8080",
		MetricsPath:     "/metrics",
		ShutdownTimeout: 10 * time.Second,
		Log: logConfig{
			Format: "json",
			Level:  "info",
		},
		Session:  cfg,
		Password: password.DefaultConfig(),
	}
}

// loadConfig overlays the YAML file at path onto the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decodeConfig(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *serverConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.validate()
}

func (c *serverConfig) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if u.Username == "" {
			return errors.New("users: username required")
		}
		if seen[u.Username] {
			return fmt.Errorf("users: duplicate username %q", u.Username)
		}
		seen[u.Username] = true
		if (u.PasswordHash == "") == (u.Password == "") {
			return fmt.Errorf("users: %q needs exactly one of password_hash or password", u.Username)
		}
	}
	return nil
}

// newDirectory loads the configured users into a password directory.
func newDirectory(cfg serverConfig) (*password.Directory, error) {
	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	dir, err := password.NewDirectory(hasher)
	if err != nil {
		return nil, err
	}

	for _, u := range cfg.Users {
		user := password.User{Username: u.Username, DisplayName: u.Name}
		if u.PasswordHash != "" {
			err = dir.Add(user, u.PasswordHash)
		} else {
			err = dir.AddPassword(user, u.Password)
		}
		if err != nil {
			return nil, err
		}
	}
	return dir, nil
}
