package schema

// PanelSnapshot is a read-only view of a panel instance for transports.
type PanelSnapshot struct {
	ID           PanelID      `json:"id"`
	TypeKey      PanelTypeKey `json:"type_key"`
	Title        PanelTitle   `json:"title"`
	RenderTarget RenderTarget `json:"render_target,omitempty"`
	Pinned       bool         `json:"pinned"`
	Section      bool         `json:"section"`
}

// WorkspaceSnapshot is a read-only view of workspace state for transports.
// PanelIDs preserves tab order; SectionPanel is independent of the tab list.
type WorkspaceSnapshot struct {
	ID           WorkspaceID    `json:"id"`
	Name         WorkspaceName  `json:"name"`
	PanelIDs     []PanelID      `json:"panel_ids"`
	ActivePanel  PanelID        `json:"active_panel,omitempty"`
	SectionPanel PanelID        `json:"section_panel,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
	Active       bool           `json:"active"`
}

// PanelTypeInfo describes a catalog entry for transports.
type PanelTypeInfo struct {
	Key          PanelTypeKey `json:"key"`
	Title        PanelTitle   `json:"title"`
	RenderTarget RenderTarget `json:"render_target,omitempty"`
	Section      bool         `json:"section"`
}
