package schema

// WorkspaceID identifies a workspace.
type WorkspaceID string

// PanelID identifies a panel instance.
type PanelID string

// PanelTypeKey identifies a panel kind in the type catalog.
type PanelTypeKey string

// WorkspaceName is the user-facing name of a workspace.
type WorkspaceName string

// PanelTitle is the user-facing title of a panel.
type PanelTitle string

// RenderTarget is an opaque reference to a renderable unit. The core
// stores and returns it unmodified; only the presentation layer
// interprets it.
type RenderTarget any

// PanelDescriptor is the static definition bound to a PanelTypeKey.
type PanelDescriptor struct {
	Title        PanelTitle
	RenderTarget RenderTarget
	Section      bool
}
