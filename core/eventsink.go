package core

import "pkt.systems/atelier/schema"

// EventSink receives workspace and panel events from the core service.
// Events are delivered after the batch that produced them has committed,
// in commit order, from the scheduler goroutine.
type EventSink interface {
	OnWorkspaceEvent(event schema.WorkspaceEvent)
	OnPanelEvent(event schema.PanelEvent)
}
