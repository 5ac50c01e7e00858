package core

import (
	"sync"
	"testing"

	"pkt.systems/atelier/schema"
)

// recordingSink captures emitted events for assertions.
type recordingSink struct {
	mu         sync.Mutex
	workspaces []schema.WorkspaceEvent
	panels     []schema.PanelEvent
}

func (r *recordingSink) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspaces = append(r.workspaces, event)
}

func (r *recordingSink) OnPanelEvent(event schema.PanelEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panels = append(r.panels, event)
}

func (r *recordingSink) workspaceEvents() []schema.WorkspaceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schema.WorkspaceEvent(nil), r.workspaces...)
}

func (r *recordingSink) panelEvents() []schema.PanelEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schema.PanelEvent(nil), r.panels...)
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(schema.ServiceConfig{}, nil)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	entries := map[schema.PanelTypeKey]schema.PanelDescriptor{
		"editor":   {Title: "Editor", RenderTarget: "builtin:editor"},
		"terminal": {Title: "Terminal", RenderTarget: "builtin:terminal"},
		"welcome":  {Title: "Welcome", RenderTarget: "builtin:welcome"},
		"settings": {Title: "Settings", RenderTarget: "builtin:settings", Section: true},
	}
	for key, desc := range entries {
		if err := catalog.Register(key, desc); err != nil {
			t.Fatalf("register %q: %v", key, err)
		}
	}
	return catalog
}

func newTestService(t *testing.T, cfg schema.ServiceConfig, sink EventSink) Service {
	t.Helper()
	svc, err := NewService(cfg, ServiceDeps{Catalog: newTestCatalog(t), EventSink: sink})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}
