package schema

import "errors"

// UnknownTypePolicy controls what the catalog does on a resolution miss.
type UnknownTypePolicy string

const (
	// UnknownTypeFallback resolves unknown keys to a generic custom-panel
	// descriptor and logs a warning.
	UnknownTypeFallback UnknownTypePolicy = "fallback"
	// UnknownTypeReject fails unknown keys with ErrUnknownPanelType.
	UnknownTypeReject UnknownTypePolicy = "reject"
)

// ServiceConfig defines defaults and limits for the core service.
type ServiceConfig struct {
	UnknownTypePolicy UnknownTypePolicy
	// FallbackTitle seeds the descriptor used under the fallback policy.
	FallbackTitle PanelTitle
	// FallbackRenderTarget is handed out for unknown keys so the shell
	// never receives a blank render target.
	FallbackRenderTarget RenderTarget
	PanelTitleMax        int
	PanelTitleSuffix     string
	// QueueDepth bounds the scheduler command queue.
	QueueDepth int
}

// DefaultQueueDepth is the default scheduler queue bound.
const DefaultQueueDepth = 256

// DefaultPanelTitleMax is the default panel title clamp.
const DefaultPanelTitleMax = 40

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.UnknownTypePolicy == "" {
		cfg.UnknownTypePolicy = UnknownTypeFallback
	}
	switch cfg.UnknownTypePolicy {
	case UnknownTypeFallback, UnknownTypeReject:
	default:
		return ServiceConfig{}, errors.New("unknown panel type policy must be \"fallback\" or \"reject\"")
	}
	if cfg.FallbackTitle == "" {
		cfg.FallbackTitle = "Custom Panel"
	}
	if cfg.FallbackRenderTarget == nil {
		cfg.FallbackRenderTarget = "builtin:custom"
	}
	if cfg.PanelTitleMax <= 0 {
		cfg.PanelTitleMax = DefaultPanelTitleMax
	}
	if cfg.PanelTitleSuffix == "" {
		cfg.PanelTitleSuffix = "..."
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	if cfg.PanelTitleMax <= len(cfg.PanelTitleSuffix) {
		return ServiceConfig{}, errors.New("panel title max must exceed suffix length")
	}
	return cfg, nil
}
