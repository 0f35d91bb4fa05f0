// Package config loads displayd's YAML configuration file: the HTTP listen
// address, TLS material, the sqlite settings database path, the device
// catalog path, and session lifetime, in the same gopkg.in/yaml.v3 style the
// rest of the daemon uses for on-disk documents.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"displayd/internal/state/paths"
)

// Config is displayd's top-level configuration document.
type Config struct {
	Listen        string        `yaml:"listen"`
	TLSCertFile   string        `yaml:"tls_cert_file,omitempty"`
	TLSKeyFile    string        `yaml:"tls_key_file,omitempty"`
	SettingsDB    string        `yaml:"settings_db,omitempty"`
	CatalogPath   string        `yaml:"catalog_path,omitempty"`
	OpenAPIPath   string        `yaml:"openapi_path,omitempty"`
	SessionTTL    time.Duration `yaml:"session_ttl,omitempty"`
	JWTSigningKey string        `yaml:"jwt_signing_key,omitempty"`
}

const defaultListen = ":8443"
const defaultSessionTTL = 12 * time.Hour

// Default returns a configuration with every path defaulted from the state
// root, suitable for running without an on-disk config file at all.
func Default() Config {
	return Config{
		Listen:      defaultListen,
		SettingsDB:  paths.SettingsDBPath(),
		CatalogPath: paths.CatalogPath(),
		OpenAPIPath: "docs/api/openapi.yaml",
		SessionTTL:  defaultSessionTTL,
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.SettingsDB == "" {
		cfg.SettingsDB = paths.SettingsDBPath()
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = paths.CatalogPath()
	}
	if cfg.OpenAPIPath == "" {
		cfg.OpenAPIPath = "docs/api/openapi.yaml"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return cfg, nil
}

// TLSEnabled reports whether both halves of a TLS keypair were configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
