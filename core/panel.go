package core

import (
	"time"

	"pkt.systems/atelier/schema"
)

// panel tracks the state of a single panel instance. Workspaces reference
// instances by id only; the store in panels.go is the sole owner.
type panel struct {
	ID           schema.PanelID
	TypeKey      schema.PanelTypeKey
	Title        schema.PanelTitle
	RenderTarget schema.RenderTarget
	Pinned       bool
	Section      bool
	CreatedAt    time.Time
}

// Snapshot returns a transport-friendly view of the panel.
func (p *panel) Snapshot() schema.PanelSnapshot {
	return schema.PanelSnapshot{
		ID:           p.ID,
		TypeKey:      p.TypeKey,
		Title:        p.Title,
		RenderTarget: p.RenderTarget,
		Pinned:       p.Pinned,
		Section:      p.Section,
	}
}
