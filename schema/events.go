package schema

// WorkspaceEventType describes workspace lifecycle or state changes.
type WorkspaceEventType string

const (
	// WorkspaceEventCreated indicates a workspace was created.
	WorkspaceEventCreated WorkspaceEventType = "created"
	// WorkspaceEventSwitched indicates the active workspace changed.
	WorkspaceEventSwitched WorkspaceEventType = "switched"
	// WorkspaceEventUpdated indicates workspace state changed (tab list,
	// activation, section slot, or context).
	WorkspaceEventUpdated WorkspaceEventType = "updated"
)

// WorkspaceEvent represents a change to a workspace or the activation selector.
type WorkspaceEvent struct {
	Type            WorkspaceEventType
	Workspace       WorkspaceSnapshot
	ActiveWorkspace WorkspaceID
}

// PanelEventType describes panel instance lifecycle changes.
type PanelEventType string

const (
	// PanelEventCreated indicates a panel instance was created.
	PanelEventCreated PanelEventType = "created"
	// PanelEventAdded indicates a panel was attached to a workspace tab list.
	PanelEventAdded PanelEventType = "added"
	// PanelEventRemoved indicates a panel was detached from a workspace.
	PanelEventRemoved PanelEventType = "removed"
	// PanelEventActivated indicates a panel became the active panel.
	PanelEventActivated PanelEventType = "activated"
	// PanelEventUpdated indicates panel state changed (title, pin).
	PanelEventUpdated PanelEventType = "updated"
	// PanelEventEvicted indicates a panel instance was removed from the store.
	PanelEventEvicted PanelEventType = "evicted"
)

// PanelEvent represents a change to a panel instance, optionally scoped to
// the workspace the change happened in.
type PanelEvent struct {
	Type        PanelEventType
	WorkspaceID WorkspaceID
	Panel       PanelSnapshot
	ActivePanel PanelID
}
