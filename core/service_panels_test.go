package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pkt.systems/atelier/schema"
)

func createTestWorkspace(t *testing.T, svc Service, name schema.WorkspaceName) schema.WorkspaceSnapshot {
	t.Helper()
	resp, err := svc.CreateWorkspace(context.Background(), schema.CreateWorkspaceRequest{Name: name})
	if err != nil {
		t.Fatalf("create workspace %q: %v", name, err)
	}
	return resp.Workspace
}

func TestCreatePanelFocusesNewTab(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(t, schema.ServiceConfig{}, sink)
	ws := createTestWorkspace(t, svc, "main")

	first, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "editor"})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}
	if first.Panel.Title != "Editor" || first.Panel.RenderTarget != "builtin:editor" {
		t.Fatalf("expected descriptor defaults, got %+v", first.Panel)
	}
	if first.Workspace.ActivePanel != first.Panel.ID {
		t.Fatalf("expected new panel to take focus")
	}

	second, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "terminal", Title: "build shell"})
	if err != nil {
		t.Fatalf("create second panel: %v", err)
	}
	if second.Panel.Title != "build shell" {
		t.Fatalf("expected title override, got %q", second.Panel.Title)
	}
	if second.Workspace.ActivePanel != second.Panel.ID {
		t.Fatalf("expected second panel to take focus")
	}
	if len(second.Workspace.PanelIDs) != 2 || second.Workspace.PanelIDs[0] != first.Panel.ID {
		t.Fatalf("expected tab order to be preserved, got %v", second.Workspace.PanelIDs)
	}
	if first.Panel.ID == second.Panel.ID {
		t.Fatalf("expected distinct panel ids")
	}

	events := sink.panelEvents()
	if len(events) != 2 || events[0].Type != schema.PanelEventCreated {
		t.Fatalf("unexpected panel events: %+v", events)
	}
}

func TestCreatePanelUnknownWorkspace(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	if _, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: "ws-missing", TypeKey: "editor"}); !errors.Is(err, schema.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestUnknownTypeFallbackNeverBlank(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")

	resp, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "no-such-type"})
	if err != nil {
		t.Fatalf("create panel with unknown type: %v", err)
	}
	if resp.Panel.Title == "" || resp.Panel.RenderTarget == nil || resp.Panel.RenderTarget == "" {
		t.Fatalf("expected fallback descriptor, got %+v", resp.Panel)
	}
	if resp.Panel.TypeKey != "no-such-type" {
		t.Fatalf("expected requested type key on the instance, got %q", resp.Panel.TypeKey)
	}
}

func TestUnknownTypeRejectPolicy(t *testing.T) {
	svc, err := NewService(schema.ServiceConfig{UnknownTypePolicy: schema.UnknownTypeReject}, ServiceDeps{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	ws := createTestWorkspace(t, svc, "main")
	if _, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "no-such-type"}); !errors.Is(err, schema.ErrUnknownPanelType) {
		t.Fatalf("expected ErrUnknownPanelType, got %v", err)
	}
}

func TestPanelTitleClamp(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{PanelTitleMax: 10, PanelTitleSuffix: "..."}, nil)
	ws := createTestWorkspace(t, svc, "main")
	resp, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{
		WorkspaceID: ws.ID,
		TypeKey:     "editor",
		Title:       "a very long panel title",
	})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}
	if len(resp.Panel.Title) != 10 || !strings.HasSuffix(string(resp.Panel.Title), "...") {
		t.Fatalf("expected clamped title, got %q", resp.Panel.Title)
	}
}

func TestAddPanelNeverStealsFocus(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")
	other := createTestWorkspace(t, svc, "scratch")

	focused, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "editor"})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}
	registered, err := svc.RegisterPanel(context.Background(), schema.RegisterPanelRequest{TypeKey: "terminal"})
	if err != nil {
		t.Fatalf("register panel: %v", err)
	}

	resp, err := svc.AddPanel(context.Background(), schema.AddPanelRequest{WorkspaceID: ws.ID, PanelID: registered.Panel.ID})
	if err != nil {
		t.Fatalf("add panel: %v", err)
	}
	if resp.Workspace.ActivePanel != focused.Panel.ID {
		t.Fatalf("expected focus to stay on %q, got %q", focused.Panel.ID, resp.Workspace.ActivePanel)
	}
	if len(resp.Workspace.PanelIDs) != 2 {
		t.Fatalf("expected 2 tabs, got %v", resp.Workspace.PanelIDs)
	}

	// Adding to an empty workspace adopts the panel as active.
	resp, err = svc.AddPanel(context.Background(), schema.AddPanelRequest{WorkspaceID: other.ID, PanelID: registered.Panel.ID})
	if err != nil {
		t.Fatalf("add panel to empty workspace: %v", err)
	}
	if resp.Workspace.ActivePanel != registered.Panel.ID {
		t.Fatalf("expected empty workspace to adopt panel as active")
	}

	// Adding twice is idempotent.
	resp, err = svc.AddPanel(context.Background(), schema.AddPanelRequest{WorkspaceID: ws.ID, PanelID: registered.Panel.ID})
	if err != nil {
		t.Fatalf("re-add panel: %v", err)
	}
	if len(resp.Workspace.PanelIDs) != 2 {
		t.Fatalf("expected re-add to be a no-op, got %v", resp.Workspace.PanelIDs)
	}

	if _, err := svc.AddPanel(context.Background(), schema.AddPanelRequest{WorkspaceID: ws.ID, PanelID: "panel-missing"}); !errors.Is(err, schema.ErrPanelNotFound) {
		t.Fatalf("expected ErrPanelNotFound, got %v", err)
	}
}

func TestRegisterPanelExplicitID(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	resp, err := svc.RegisterPanel(context.Background(), schema.RegisterPanelRequest{TypeKey: "editor", PanelID: "editor-fixed"})
	if err != nil {
		t.Fatalf("register panel: %v", err)
	}
	if resp.Panel.ID != "editor-fixed" {
		t.Fatalf("expected explicit id, got %q", resp.Panel.ID)
	}
	if _, err := svc.RegisterPanel(context.Background(), schema.RegisterPanelRequest{TypeKey: "editor", PanelID: "editor-fixed"}); !errors.Is(err, schema.ErrDuplicatePanelID) {
		t.Fatalf("expected ErrDuplicatePanelID, got %v", err)
	}
}

func TestRemovePanelPromotesFirstRemaining(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")

	first, _ := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "editor"})
	second, _ := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "terminal"})
	third, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "terminal"})
	if err != nil {
		t.Fatalf("create panels: %v", err)
	}
	if third.Workspace.ActivePanel != third.Panel.ID {
		t.Fatalf("expected last created panel active")
	}

	// Removing the active panel promotes the first remaining tab.
	resp, err := svc.RemovePanel(context.Background(), schema.RemovePanelRequest{WorkspaceID: ws.ID, PanelID: third.Panel.ID})
	if err != nil {
		t.Fatalf("remove panel: %v", err)
	}
	if !resp.Removed {
		t.Fatalf("expected removal")
	}
	if resp.Workspace.ActivePanel != first.Panel.ID {
		t.Fatalf("expected first tab %q promoted, got %q", first.Panel.ID, resp.Workspace.ActivePanel)
	}

	// Removing a non-active tab leaves activation alone.
	resp, err = svc.RemovePanel(context.Background(), schema.RemovePanelRequest{WorkspaceID: ws.ID, PanelID: second.Panel.ID})
	if err != nil {
		t.Fatalf("remove second panel: %v", err)
	}
	if resp.Workspace.ActivePanel != first.Panel.ID {
		t.Fatalf("expected activation to stay on %q", first.Panel.ID)
	}

	// Removing the sole remaining tab clears activation.
	resp, err = svc.RemovePanel(context.Background(), schema.RemovePanelRequest{WorkspaceID: ws.ID, PanelID: first.Panel.ID})
	if err != nil {
		t.Fatalf("remove last panel: %v", err)
	}
	if resp.Workspace.ActivePanel != "" || len(resp.Workspace.PanelIDs) != 0 {
		t.Fatalf("expected empty workspace, got %+v", resp.Workspace)
	}

	// Removing an unattached panel is a no-op.
	resp, err = svc.RemovePanel(context.Background(), schema.RemovePanelRequest{WorkspaceID: ws.ID, PanelID: first.Panel.ID})
	if err != nil {
		t.Fatalf("remove detached panel: %v", err)
	}
	if resp.Removed {
		t.Fatalf("expected no-op removal")
	}
}

func TestClosePanelRefusesPinned(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")
	panel, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "editor"})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}

	toggled, err := svc.TogglePinPanel(context.Background(), schema.TogglePinPanelRequest{PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("toggle pin: %v", err)
	}
	if !toggled.Known || !toggled.Pinned {
		t.Fatalf("expected pinned panel, got %+v", toggled)
	}

	closed, err := svc.ClosePanel(context.Background(), schema.ClosePanelRequest{WorkspaceID: ws.ID, PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("close pinned panel: %v", err)
	}
	if closed.Closed {
		t.Fatalf("expected close to refuse pinned panel")
	}
	if len(closed.Workspace.PanelIDs) != 1 {
		t.Fatalf("expected pinned panel to survive close")
	}

	// removePanel ignores pinning.
	removed, err := svc.RemovePanel(context.Background(), schema.RemovePanelRequest{WorkspaceID: ws.ID, PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("remove pinned panel: %v", err)
	}
	if !removed.Removed {
		t.Fatalf("expected remove to ignore pinning")
	}

	// Unpin and close the re-added panel.
	if _, err := svc.AddPanel(context.Background(), schema.AddPanelRequest{WorkspaceID: ws.ID, PanelID: panel.Panel.ID}); err != nil {
		t.Fatalf("re-add panel: %v", err)
	}
	toggled, err = svc.TogglePinPanel(context.Background(), schema.TogglePinPanelRequest{PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("toggle pin back: %v", err)
	}
	if toggled.Pinned {
		t.Fatalf("expected toggle to be its own inverse")
	}
	closed, err = svc.ClosePanel(context.Background(), schema.ClosePanelRequest{WorkspaceID: ws.ID, PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("close unpinned panel: %v", err)
	}
	if !closed.Closed {
		t.Fatalf("expected close to succeed once unpinned")
	}
}

func TestTogglePinUnknownPanel(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	resp, err := svc.TogglePinPanel(context.Background(), schema.TogglePinPanelRequest{PanelID: "panel-missing"})
	if err != nil {
		t.Fatalf("toggle pin unknown panel: %v", err)
	}
	if resp.Known {
		t.Fatalf("expected unknown panel toggle to be a no-op")
	}
}

func TestSetPanelTitleAndPinned(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")
	panel, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "editor"})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}

	titled, err := svc.SetPanelTitle(context.Background(), schema.SetPanelTitleRequest{PanelID: panel.Panel.ID, Title: "notes"})
	if err != nil {
		t.Fatalf("set title: %v", err)
	}
	if titled.Panel.Title != "notes" {
		t.Fatalf("expected renamed panel, got %q", titled.Panel.Title)
	}

	pinned, err := svc.SetPanelPinned(context.Background(), schema.SetPanelPinnedRequest{PanelID: panel.Panel.ID, Pinned: true})
	if err != nil {
		t.Fatalf("set pinned: %v", err)
	}
	if !pinned.Panel.Pinned {
		t.Fatalf("expected pinned panel")
	}

	if _, err := svc.SetPanelTitle(context.Background(), schema.SetPanelTitleRequest{PanelID: "panel-missing", Title: "x"}); !errors.Is(err, schema.ErrPanelNotFound) {
		t.Fatalf("expected ErrPanelNotFound, got %v", err)
	}
	if _, err := svc.SetPanelPinned(context.Background(), schema.SetPanelPinnedRequest{PanelID: "panel-missing", Pinned: true}); !errors.Is(err, schema.ErrPanelNotFound) {
		t.Fatalf("expected ErrPanelNotFound, got %v", err)
	}
}

func TestEvictPanelCascades(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(t, schema.ServiceConfig{}, sink)
	first := createTestWorkspace(t, svc, "main")
	second := createTestWorkspace(t, svc, "scratch")

	panel, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: first.ID, TypeKey: "editor"})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}
	if _, err := svc.AddPanel(context.Background(), schema.AddPanelRequest{WorkspaceID: second.ID, PanelID: panel.Panel.ID}); err != nil {
		t.Fatalf("share panel: %v", err)
	}
	// Pinning does not protect against eviction.
	if _, err := svc.SetPanelPinned(context.Background(), schema.SetPanelPinnedRequest{PanelID: panel.Panel.ID, Pinned: true}); err != nil {
		t.Fatalf("pin panel: %v", err)
	}

	resp, err := svc.EvictPanel(context.Background(), schema.EvictPanelRequest{PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("evict panel: %v", err)
	}
	if !resp.Evicted {
		t.Fatalf("expected eviction")
	}

	// No workspace may reference the evicted id.
	list, err := svc.ListWorkspaces(context.Background(), schema.ListWorkspacesRequest{})
	if err != nil {
		t.Fatalf("list workspaces: %v", err)
	}
	for _, ws := range list.Workspaces {
		for _, id := range ws.PanelIDs {
			if id == panel.Panel.ID {
				t.Fatalf("workspace %q still references evicted panel", ws.ID)
			}
		}
		if ws.ActivePanel == panel.Panel.ID || ws.SectionPanel == panel.Panel.ID {
			t.Fatalf("workspace %q still activates evicted panel", ws.ID)
		}
	}
	if _, err := svc.GetPanel(context.Background(), schema.GetPanelRequest{PanelID: panel.Panel.ID}); !errors.Is(err, schema.ErrPanelNotFound) {
		t.Fatalf("expected ErrPanelNotFound after evict, got %v", err)
	}

	// Evicting again is a no-op.
	resp, err = svc.EvictPanel(context.Background(), schema.EvictPanelRequest{PanelID: panel.Panel.ID})
	if err != nil {
		t.Fatalf("re-evict panel: %v", err)
	}
	if resp.Evicted {
		t.Fatalf("expected no-op eviction")
	}
}

func TestListPanels(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")

	tab, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "editor"})
	if err != nil {
		t.Fatalf("create tab panel: %v", err)
	}
	section, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{WorkspaceID: ws.ID, TypeKey: "settings", NoTab: true})
	if err != nil {
		t.Fatalf("create section panel: %v", err)
	}
	if _, err := svc.RegisterPanel(context.Background(), schema.RegisterPanelRequest{TypeKey: "terminal"}); err != nil {
		t.Fatalf("register detached panel: %v", err)
	}

	scoped, err := svc.ListPanels(context.Background(), schema.ListPanelsRequest{WorkspaceID: ws.ID})
	if err != nil {
		t.Fatalf("list workspace panels: %v", err)
	}
	if len(scoped.Panels) != 2 {
		t.Fatalf("expected tab plus section panel, got %d", len(scoped.Panels))
	}
	if scoped.Panels[0].ID != tab.Panel.ID || scoped.Panels[1].ID != section.Panel.ID {
		t.Fatalf("expected tab order then section, got %+v", scoped.Panels)
	}

	all, err := svc.ListPanels(context.Background(), schema.ListPanelsRequest{})
	if err != nil {
		t.Fatalf("list all panels: %v", err)
	}
	if len(all.Panels) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(all.Panels))
	}

	if _, err := svc.ListPanels(context.Background(), schema.ListPanelsRequest{WorkspaceID: "ws-missing"}); !errors.Is(err, schema.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestListPanelTypes(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	resp, err := svc.ListPanelTypes(context.Background(), schema.ListPanelTypesRequest{})
	if err != nil {
		t.Fatalf("list panel types: %v", err)
	}
	if len(resp.Types) != 4 {
		t.Fatalf("expected 4 types, got %d", len(resp.Types))
	}
	for i := 1; i < len(resp.Types); i++ {
		if resp.Types[i-1].Key >= resp.Types[i].Key {
			t.Fatalf("expected types sorted by key, got %+v", resp.Types)
		}
	}
}
