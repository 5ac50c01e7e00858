package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/atelier/internal/logx"
	"pkt.systems/atelier/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq             uint64                    `json:"seq"`
	Type            string                    `json:"type"`
	WorkspaceEvent  string                    `json:"workspace_event,omitempty"`
	PanelEvent      string                    `json:"panel_event,omitempty"`
	WorkspaceID     schema.WorkspaceID        `json:"workspace_id,omitempty"`
	Workspace       *schema.WorkspaceSnapshot `json:"workspace,omitempty"`
	Panel           *schema.PanelSnapshot     `json:"panel,omitempty"`
	ActiveWorkspace schema.WorkspaceID        `json:"active_workspace,omitempty"`
	ActivePanel     schema.PanelID            `json:"active_panel,omitempty"`
	Snapshot        *SnapshotPayload          `json:"snapshot,omitempty"`
	Timestamp       time.Time                 `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Workspaces      []schema.WorkspaceSnapshot `json:"workspaces"`
	ActiveWorkspace schema.WorkspaceID         `json:"active_workspace"`
	Panels          []schema.PanelSnapshot     `json:"panels"`
	Types           []schema.PanelTypeInfo     `json:"types"`
	BaseHref        string                     `json:"base_href,omitempty"`
}

// Hub broadcasts orchestration events to SSE subscribers with a bounded
// replay history. The whole process shares one stream.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnWorkspaceEvent implements core.EventSink.
func (h *Hub) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	log := logx.WithWorkspace(context.Background(), event.Workspace.ID)
	log.Trace("hub workspace event", "type", event.Type, "active", event.ActiveWorkspace)
	workspace := event.Workspace
	h.publish(StreamEvent{
		Type:            "workspace",
		WorkspaceEvent:  string(event.Type),
		Workspace:       &workspace,
		ActiveWorkspace: event.ActiveWorkspace,
		Timestamp:       time.Now(),
	})
}

// OnPanelEvent implements core.EventSink.
func (h *Hub) OnPanelEvent(event schema.PanelEvent) {
	log := logx.WithWorkspacePanel(context.Background(), event.WorkspaceID, event.Panel.ID)
	log.Trace("hub panel event", "type", event.Type, "active", event.ActivePanel)
	panel := event.Panel
	h.publish(StreamEvent{
		Type:        "panel",
		PanelEvent:  string(event.Type),
		WorkspaceID: event.WorkspaceID,
		Panel:       &panel,
		ActivePanel: event.ActivePanel,
		Timestamp:   time.Now(),
	})
}

// Subscribe registers a subscriber and returns the current history.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), h.history...)
	seq := h.seq
	log := logx.Ctx(context.Background())
	log.Info("hub subscribe", "subs", len(h.subs), "history", len(history))
	unsub := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		remaining := len(h.subs)
		h.mu.Unlock()
		// The channel is left open: publish snapshots the subscriber set
		// outside the lock and may still send to it.
		log.Info("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub, seq, history
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.Ctx(context.Background()).Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	subs := make([]chan StreamEvent, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		logx.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
