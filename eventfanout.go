package atelier

import (
	"pkt.systems/atelier/core"
	"pkt.systems/atelier/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnWorkspaceEvent(event)
	}
}

func (f eventFanout) OnPanelEvent(event schema.PanelEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnPanelEvent(event)
	}
}
