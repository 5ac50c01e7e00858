package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/atelier/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int             `mapstructure:"config_version" yaml:"config_version"`
	Service       ServiceConfig   `mapstructure:"service" yaml:"service"`
	Catalog       CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	HTTP          HTTPConfig      `mapstructure:"http" yaml:"http"`
	Workspaces    []SeedWorkspace `mapstructure:"workspaces" yaml:"workspaces"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	UnknownTypePolicy    string `mapstructure:"unknown_type_policy" yaml:"unknown_type_policy"`
	FallbackTitle        string `mapstructure:"fallback_title" yaml:"fallback_title"`
	FallbackRenderTarget string `mapstructure:"fallback_render_target" yaml:"fallback_render_target"`
	PanelTitleMax        int    `mapstructure:"panel_title_max" yaml:"panel_title_max"`
	QueueDepth           int    `mapstructure:"queue_depth" yaml:"queue_depth"`
}

// CatalogConfig points at a user-supplied panel type catalog merged over
// the embedded defaults.
type CatalogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	BasePath      string `mapstructure:"base_path" yaml:"base_path"`
	StreamHistory int    `mapstructure:"stream_history" yaml:"stream_history"`
}

// SeedWorkspace declares a workspace created at startup.
type SeedWorkspace struct {
	Name   string      `mapstructure:"name" yaml:"name"`
	Panels []SeedPanel `mapstructure:"panels" yaml:"panels"`
}

// SeedPanel declares a panel created inside a seed workspace.
type SeedPanel struct {
	Type  string `mapstructure:"type" yaml:"type"`
	Title string `mapstructure:"title" yaml:"title"`
	NoTab bool   `mapstructure:"no_tab" yaml:"no_tab"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Service: ServiceConfig{
			UnknownTypePolicy:    string(schema.UnknownTypeFallback),
			FallbackTitle:        "Custom Panel",
			FallbackRenderTarget: "builtin:custom",
			PanelTitleMax:        schema.DefaultPanelTitleMax,
			QueueDepth:           schema.DefaultQueueDepth,
		},
		Catalog: CatalogConfig{
			File: filepath.Join(home, ".atelier", "panels.yaml"),
		},
		HTTP: HTTPConfig{
			Addr:          ":27490",
			BaseURL:       "",
			BasePath:      "",
			StreamHistory: 1000,
		},
		Workspaces: []SeedWorkspace{
			{
				Name: "main",
				Panels: []SeedPanel{
					{Type: "welcome"},
				},
			},
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".atelier", "config.yaml"), nil
}
