package core

import (
	"context"
	"sort"
	"sync"

	"pkt.systems/atelier/schema"
	"pkt.systems/pslog"
)

// Catalog maps panel type keys to their static descriptors. It is populated
// by the presentation layer at process start (see bootstrap) and read-only
// from the orchestration engine's point of view afterwards.
type Catalog struct {
	mu       sync.RWMutex
	entries  map[schema.PanelTypeKey]schema.PanelDescriptor
	policy   schema.UnknownTypePolicy
	fallback schema.PanelDescriptor
	logger   pslog.Logger
}

// NewCatalog constructs an empty catalog with the given miss policy.
func NewCatalog(cfg schema.ServiceConfig, logger pslog.Logger) (*Catalog, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Catalog{
		entries: make(map[schema.PanelTypeKey]schema.PanelDescriptor),
		policy:  normalized.UnknownTypePolicy,
		fallback: schema.PanelDescriptor{
			Title:        normalized.FallbackTitle,
			RenderTarget: normalized.FallbackRenderTarget,
		},
		logger: logger,
	}, nil
}

// Register binds a descriptor to a type key. Re-registering a key replaces
// the previous descriptor; bootstrap relies on this for user overrides.
func (c *Catalog) Register(key schema.PanelTypeKey, desc schema.PanelDescriptor) error {
	if err := schema.ValidatePanelTypeKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	_, replaced := c.entries[key]
	c.entries[key] = desc
	c.mu.Unlock()
	if replaced {
		c.logger.Debug("catalog entry replaced", "type", key)
	} else {
		c.logger.Debug("catalog entry registered", "type", key, "section", desc.Section)
	}
	return nil
}

// Resolve returns the descriptor for a key. Unknown keys either resolve to
// the fallback descriptor (logged as a warning, never a blank render
// target) or fail with ErrUnknownPanelType, depending on the policy.
func (c *Catalog) Resolve(key schema.PanelTypeKey) (schema.PanelDescriptor, error) {
	if err := schema.ValidatePanelTypeKey(key); err != nil {
		return schema.PanelDescriptor{}, err
	}
	c.mu.RLock()
	desc, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return desc, nil
	}
	if c.policy == schema.UnknownTypeReject {
		return schema.PanelDescriptor{}, schema.ErrUnknownPanelType
	}
	c.logger.Warn("catalog miss, using fallback descriptor", "type", key)
	return c.fallback, nil
}

// Types lists catalog entries sorted by key.
func (c *Catalog) Types() []schema.PanelTypeInfo {
	c.mu.RLock()
	types := make([]schema.PanelTypeInfo, 0, len(c.entries))
	for key, desc := range c.entries {
		types = append(types, schema.PanelTypeInfo{
			Key:          key,
			Title:        desc.Title,
			RenderTarget: desc.RenderTarget,
			Section:      desc.Section,
		})
	}
	c.mu.RUnlock()
	sort.Slice(types, func(i, j int) bool { return types[i].Key < types[j].Key })
	return types
}

// Len reports the number of registered type keys.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
