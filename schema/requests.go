package schema

// Workspace lifecycle.

// CreateWorkspaceRequest describes a request to create a workspace.
type CreateWorkspaceRequest struct {
	Name WorkspaceName
}

// CreateWorkspaceResponse reports the created workspace. Activated is true
// when the new workspace became the active workspace (first workspace only).
type CreateWorkspaceResponse struct {
	Workspace WorkspaceSnapshot
	Activated bool
}

// SwitchWorkspaceRequest describes a request to switch the active workspace.
type SwitchWorkspaceRequest struct {
	WorkspaceID WorkspaceID
}

// SwitchWorkspaceResponse reports the activation selector after the switch.
// Switched is false when the id was unknown and the request was ignored.
type SwitchWorkspaceResponse struct {
	ActiveWorkspace WorkspaceID
	Switched        bool
}

// ListWorkspacesRequest describes a request to list workspaces.
type ListWorkspacesRequest struct{}

// ListWorkspacesResponse reports workspaces in creation order.
type ListWorkspacesResponse struct {
	Workspaces      []WorkspaceSnapshot
	ActiveWorkspace WorkspaceID
}

// GetWorkspaceRequest describes a request to fetch one workspace.
type GetWorkspaceRequest struct {
	WorkspaceID WorkspaceID
}

// GetWorkspaceResponse reports the workspace snapshot.
type GetWorkspaceResponse struct {
	Workspace WorkspaceSnapshot
}

// SetWorkspaceContextRequest describes a shallow merge into a workspace
// context bag. Existing keys not present in Context are kept.
type SetWorkspaceContextRequest struct {
	WorkspaceID WorkspaceID
	Context     map[string]any
}

// SetWorkspaceContextResponse reports the workspace after the merge.
type SetWorkspaceContextResponse struct {
	Workspace WorkspaceSnapshot
}

// Panel lifecycle.

// CreatePanelRequest describes a request to create a panel instance and
// attach it to a workspace. NoTab suppresses tab creation; combined with a
// section-flagged type the panel occupies the workspace section slot
// instead of the tab list.
type CreatePanelRequest struct {
	WorkspaceID WorkspaceID
	TypeKey     PanelTypeKey
	Title       PanelTitle
	NoTab       bool
}

// CreatePanelResponse reports the created panel and the updated workspace.
type CreatePanelResponse struct {
	Panel     PanelSnapshot
	Workspace WorkspaceSnapshot
}

// RegisterPanelRequest describes a direct instance-store registration that
// attaches the panel to no workspace. PanelID is optional; when set it must
// not collide with an existing instance.
type RegisterPanelRequest struct {
	TypeKey PanelTypeKey
	PanelID PanelID
	Title   PanelTitle
}

// RegisterPanelResponse reports the registered panel.
type RegisterPanelResponse struct {
	Panel PanelSnapshot
}

// AddPanelRequest describes attaching an existing panel instance to a
// workspace tab list.
type AddPanelRequest struct {
	WorkspaceID WorkspaceID
	PanelID     PanelID
}

// AddPanelResponse reports the updated workspace.
type AddPanelResponse struct {
	Workspace WorkspaceSnapshot
}

// RemovePanelRequest describes detaching a panel from a workspace,
// regardless of pin state.
type RemovePanelRequest struct {
	WorkspaceID WorkspaceID
	PanelID     PanelID
}

// RemovePanelResponse reports the updated workspace. Removed is false when
// the panel was not attached.
type RemovePanelResponse struct {
	Workspace WorkspaceSnapshot
	Removed   bool
}

// ClosePanelRequest describes the close path, which refuses pinned panels.
type ClosePanelRequest struct {
	WorkspaceID WorkspaceID
	PanelID     PanelID
}

// ClosePanelResponse reports the updated workspace. Closed is false when
// the panel was pinned or not attached.
type ClosePanelResponse struct {
	Workspace WorkspaceSnapshot
	Closed    bool
}

// SetActivePanelRequest describes a request to focus a panel. The panel
// must be a tab of the workspace or its current section panel.
type SetActivePanelRequest struct {
	WorkspaceID WorkspaceID
	PanelID     PanelID
}

// SetActivePanelResponse reports the updated workspace.
type SetActivePanelResponse struct {
	Workspace WorkspaceSnapshot
}

// Panel instance store.

// GetPanelRequest describes a request to fetch one panel instance.
type GetPanelRequest struct {
	PanelID PanelID
}

// GetPanelResponse reports the panel snapshot.
type GetPanelResponse struct {
	Panel PanelSnapshot
}

// ListPanelsRequest describes a request to list panel instances. When
// WorkspaceID is set, only panels attached to that workspace (tabs, in tab
// order, then the section panel) are returned.
type ListPanelsRequest struct {
	WorkspaceID WorkspaceID
}

// ListPanelsResponse reports panel snapshots.
type ListPanelsResponse struct {
	Panels []PanelSnapshot
}

// TogglePinPanelRequest describes flipping the pinned flag of a panel.
type TogglePinPanelRequest struct {
	PanelID PanelID
}

// TogglePinPanelResponse reports the panel after the flip. Pinned carries
// the new value. Unknown ids are a no-op with Known=false.
type TogglePinPanelResponse struct {
	Panel  PanelSnapshot
	Pinned bool
	Known  bool
}

// SetPanelPinnedRequest describes setting the pinned flag to a value.
type SetPanelPinnedRequest struct {
	PanelID PanelID
	Pinned  bool
}

// SetPanelPinnedResponse reports the panel after the update.
type SetPanelPinnedResponse struct {
	Panel PanelSnapshot
}

// SetPanelTitleRequest describes renaming a panel instance. Instance titles
// may diverge from their descriptor title.
type SetPanelTitleRequest struct {
	PanelID PanelID
	Title   PanelTitle
}

// SetPanelTitleResponse reports the panel after the rename.
type SetPanelTitleResponse struct {
	Panel PanelSnapshot
}

// EvictPanelRequest describes force-removing a panel instance from the
// store. Eviction ignores pinning and cascades: the id is detached from
// every workspace tab list, activation, and section slot.
type EvictPanelRequest struct {
	PanelID PanelID
}

// EvictPanelResponse reports whether an instance was actually evicted.
type EvictPanelResponse struct {
	Evicted bool
}

// Catalog.

// ListPanelTypesRequest describes a request to list catalog entries.
type ListPanelTypesRequest struct{}

// ListPanelTypesResponse reports catalog entries sorted by key.
type ListPanelTypesResponse struct {
	Types []PanelTypeInfo
}
