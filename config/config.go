/*
Package config loads engine configuration.

PURPOSE:
  One Config struct for the whole process, loaded from an optional JSON or
  YAML file with WF_-prefixed environment overrides on top
  (WF_SERVER__ADDR=:9000 overrides server.addr). Every section applies its
  defaults and validates itself, so a missing file still yields a runnable
  configuration.

SEE ALSO:
  - sections.go: per-section types, defaults, validation
  - cmd/workforce: flag wiring
*/
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full engine configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Store   StoreConfig   `json:"store"`
	Refresh RefreshConfig `json:"refresh"`
	Logging LoggingConfig `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
	Assign  AssignConfig  `json:"assign"`
}

// Load reads configuration from path, then environment overrides. An empty
// path skips the file and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}

	// Environment overrides: WF_SERVER__ADDR -> server.addr
	if err := k.Load(env.Provider("WF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "wf_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}

	cfg.Server.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Refresh.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Assign.SetDefaults()

	if err := cfg.Server.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Refresh.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Assign.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
