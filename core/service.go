package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"pkt.systems/atelier/internal/logx"
	"pkt.systems/atelier/schema"
	"pkt.systems/pslog"
)

// service implements the core orchestration behavior. All mutations go
// through the scheduler; readers take the read lock directly.
type service struct {
	cfg     schema.ServiceConfig
	catalog *Catalog
	sink    EventSink
	logger  pslog.Logger
	sched   *scheduler

	mu         sync.RWMutex
	workspaces map[schema.WorkspaceID]*workspace
	order      []schema.WorkspaceID
	activeWS   schema.WorkspaceID
	panels     *panelStore

	// pending is appended to under the write lock and flushed by the
	// scheduler goroutine after the lock is released.
	pending []func(EventSink)
}

var now = time.Now

// NewService constructs the core service and starts its scheduler.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog, err = NewCatalog(cfg, logger)
		if err != nil {
			return nil, err
		}
	}
	s := &service{
		cfg:        cfg,
		catalog:    catalog,
		sink:       deps.EventSink,
		logger:     logger,
		sched:      newScheduler(cfg.QueueDepth),
		workspaces: make(map[schema.WorkspaceID]*workspace),
		panels:     newPanelStore(),
	}
	go s.sched.run(&s.mu, s.flushEvents)
	return s, nil
}

// Close stops the scheduler. Queued commands that never ran fail with
// ErrServiceClosed; committed state stays readable.
func (s *service) Close() error {
	s.sched.close()
	return nil
}

func (s *service) CreateWorkspace(ctx context.Context, req schema.CreateWorkspaceRequest) (schema.CreateWorkspaceResponse, error) {
	if ctx == nil {
		return schema.CreateWorkspaceResponse{}, errors.New("missing context")
	}
	name, err := schema.NormalizeWorkspaceName(req.Name)
	if err != nil {
		return schema.CreateWorkspaceResponse{}, err
	}
	log := logx.Ctx(ctx)
	var resp schema.CreateWorkspaceResponse
	err = s.sched.submit(func() error {
		ws := newWorkspace(newWorkspaceID(), name)
		s.workspaces[ws.ID] = ws
		s.order = append(s.order, ws.ID)
		if s.activeWS == "" {
			s.activeWS = ws.ID
			resp.Activated = true
		}
		resp.Workspace = ws.Snapshot(s.activeWS == ws.ID)
		s.queueWorkspaceEvent(schema.WorkspaceEventCreated, resp.Workspace)
		return nil
	})
	if err != nil {
		log.Warn("service workspace create failed", "err", err)
		return schema.CreateWorkspaceResponse{}, err
	}
	log.Info("service workspace created", "workspace", resp.Workspace.ID, "name", name, "activated", resp.Activated)
	return resp, nil
}

func (s *service) SwitchWorkspace(ctx context.Context, req schema.SwitchWorkspaceRequest) (schema.SwitchWorkspaceResponse, error) {
	if ctx == nil {
		return schema.SwitchWorkspaceResponse{}, errors.New("missing context")
	}
	log := logx.WithWorkspace(ctx, req.WorkspaceID)
	var resp schema.SwitchWorkspaceResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			resp.ActiveWorkspace = s.activeWS
			return nil
		}
		s.activeWS = ws.ID
		resp.ActiveWorkspace = ws.ID
		resp.Switched = true
		s.queueWorkspaceEvent(schema.WorkspaceEventSwitched, ws.Snapshot(true))
		return nil
	})
	if err != nil {
		log.Warn("service workspace switch failed", "err", err)
		return schema.SwitchWorkspaceResponse{}, err
	}
	if resp.Switched {
		log.Info("service workspace switched")
	} else {
		log.Debug("service workspace switch ignored, unknown workspace")
	}
	return resp, nil
}

func (s *service) ListWorkspaces(ctx context.Context, req schema.ListWorkspacesRequest) (schema.ListWorkspacesResponse, error) {
	_ = ctx
	_ = req
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := schema.ListWorkspacesResponse{
		Workspaces:      make([]schema.WorkspaceSnapshot, 0, len(s.order)),
		ActiveWorkspace: s.activeWS,
	}
	for _, id := range s.order {
		ws := s.workspaces[id]
		if ws == nil {
			continue
		}
		resp.Workspaces = append(resp.Workspaces, ws.Snapshot(id == s.activeWS))
	}
	return resp, nil
}

func (s *service) GetWorkspace(ctx context.Context, req schema.GetWorkspaceRequest) (schema.GetWorkspaceResponse, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws := s.workspaces[req.WorkspaceID]
	if ws == nil {
		return schema.GetWorkspaceResponse{}, schema.ErrWorkspaceNotFound
	}
	return schema.GetWorkspaceResponse{Workspace: ws.Snapshot(ws.ID == s.activeWS)}, nil
}

func (s *service) SetWorkspaceContext(ctx context.Context, req schema.SetWorkspaceContextRequest) (schema.SetWorkspaceContextResponse, error) {
	if ctx == nil {
		return schema.SetWorkspaceContextResponse{}, errors.New("missing context")
	}
	log := logx.WithWorkspace(ctx, req.WorkspaceID)
	var resp schema.SetWorkspaceContextResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ErrWorkspaceNotFound
		}
		ws.mergeContext(req.Context)
		resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
		s.queueWorkspaceEvent(schema.WorkspaceEventUpdated, resp.Workspace)
		return nil
	})
	if err != nil {
		log.Warn("service workspace context merge failed", "err", err)
		return schema.SetWorkspaceContextResponse{}, err
	}
	log.Debug("service workspace context merged", "keys", len(req.Context))
	return resp, nil
}

func (s *service) CreatePanel(ctx context.Context, req schema.CreatePanelRequest) (schema.CreatePanelResponse, error) {
	if ctx == nil {
		return schema.CreatePanelResponse{}, errors.New("missing context")
	}
	log := logx.WithType(logx.WithWorkspace(ctx, req.WorkspaceID), req.TypeKey)
	var resp schema.CreatePanelResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ErrWorkspaceNotFound
		}
		desc, err := s.catalog.Resolve(req.TypeKey)
		if err != nil {
			return err
		}
		title := req.Title
		if title == "" {
			title = desc.Title
		}
		title = schema.PanelTitle(formatPanelTitle(string(title), s.cfg.PanelTitleMax, s.cfg.PanelTitleSuffix))
		p := &panel{
			ID:           newPanelID(req.TypeKey),
			TypeKey:      req.TypeKey,
			Title:        title,
			RenderTarget: desc.RenderTarget,
			Section:      desc.Section,
			CreatedAt:    now(),
		}
		if err := s.panels.register(p); err != nil {
			return err
		}
		if desc.Section && req.NoTab {
			ws.section = p.ID
			ws.active = p.ID
		} else {
			ws.panels = append(ws.panels, p.ID)
			ws.active = p.ID
		}
		resp.Panel = p.Snapshot()
		resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
		s.queuePanelEvent(schema.PanelEventCreated, ws.ID, resp.Panel, ws.active)
		return nil
	})
	if err != nil {
		log.Warn("service panel create failed", "err", err)
		return schema.CreatePanelResponse{}, err
	}
	log.Info("service panel created", "panel", resp.Panel.ID, "title", resp.Panel.Title, "section", resp.Panel.Section)
	return resp, nil
}

func (s *service) RegisterPanel(ctx context.Context, req schema.RegisterPanelRequest) (schema.RegisterPanelResponse, error) {
	if ctx == nil {
		return schema.RegisterPanelResponse{}, errors.New("missing context")
	}
	log := logx.WithType(logx.Ctx(ctx), req.TypeKey)
	var resp schema.RegisterPanelResponse
	err := s.sched.submit(func() error {
		desc, err := s.catalog.Resolve(req.TypeKey)
		if err != nil {
			return err
		}
		id := req.PanelID
		if id == "" {
			id = newPanelID(req.TypeKey)
		}
		title := req.Title
		if title == "" {
			title = desc.Title
		}
		title = schema.PanelTitle(formatPanelTitle(string(title), s.cfg.PanelTitleMax, s.cfg.PanelTitleSuffix))
		p := &panel{
			ID:           id,
			TypeKey:      req.TypeKey,
			Title:        title,
			RenderTarget: desc.RenderTarget,
			Section:      desc.Section,
			CreatedAt:    now(),
		}
		if err := s.panels.register(p); err != nil {
			return err
		}
		resp.Panel = p.Snapshot()
		s.queuePanelEvent(schema.PanelEventCreated, "", resp.Panel, "")
		return nil
	})
	if err != nil {
		log.Warn("service panel register failed", "err", err)
		return schema.RegisterPanelResponse{}, err
	}
	log.Info("service panel registered", "panel", resp.Panel.ID)
	return resp, nil
}

func (s *service) AddPanel(ctx context.Context, req schema.AddPanelRequest) (schema.AddPanelResponse, error) {
	if ctx == nil {
		return schema.AddPanelResponse{}, errors.New("missing context")
	}
	log := logx.WithWorkspacePanel(ctx, req.WorkspaceID, req.PanelID)
	var resp schema.AddPanelResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ErrWorkspaceNotFound
		}
		p := s.panels.get(req.PanelID)
		if p == nil {
			return schema.ErrPanelNotFound
		}
		if !ws.hasPanel(p.ID) {
			ws.panels = append(ws.panels, p.ID)
			// Joining a workspace never steals focus; only an empty
			// workspace adopts the newcomer as active.
			if ws.active == "" {
				ws.active = p.ID
			}
			s.queuePanelEvent(schema.PanelEventAdded, ws.ID, p.Snapshot(), ws.active)
		}
		resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
		return nil
	})
	if err != nil {
		log.Warn("service panel add failed", "err", err)
		return schema.AddPanelResponse{}, err
	}
	log.Info("service panel added")
	return resp, nil
}

func (s *service) RemovePanel(ctx context.Context, req schema.RemovePanelRequest) (schema.RemovePanelResponse, error) {
	if ctx == nil {
		return schema.RemovePanelResponse{}, errors.New("missing context")
	}
	log := logx.WithWorkspacePanel(ctx, req.WorkspaceID, req.PanelID)
	var resp schema.RemovePanelResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ErrWorkspaceNotFound
		}
		resp.Removed = ws.detachAll(req.PanelID)
		resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
		if resp.Removed {
			var snapshot schema.PanelSnapshot
			if p := s.panels.get(req.PanelID); p != nil {
				snapshot = p.Snapshot()
			} else {
				snapshot = schema.PanelSnapshot{ID: req.PanelID}
			}
			s.queuePanelEvent(schema.PanelEventRemoved, ws.ID, snapshot, ws.active)
		}
		return nil
	})
	if err != nil {
		log.Warn("service panel remove failed", "err", err)
		return schema.RemovePanelResponse{}, err
	}
	if resp.Removed {
		log.Info("service panel removed")
	} else {
		log.Debug("service panel remove ignored, not attached")
	}
	return resp, nil
}

func (s *service) ClosePanel(ctx context.Context, req schema.ClosePanelRequest) (schema.ClosePanelResponse, error) {
	if ctx == nil {
		return schema.ClosePanelResponse{}, errors.New("missing context")
	}
	log := logx.WithWorkspacePanel(ctx, req.WorkspaceID, req.PanelID)
	var resp schema.ClosePanelResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ErrWorkspaceNotFound
		}
		p := s.panels.get(req.PanelID)
		if p != nil && p.Pinned {
			resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
			return nil
		}
		resp.Closed = ws.detachAll(req.PanelID)
		resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
		if resp.Closed {
			var snapshot schema.PanelSnapshot
			if p != nil {
				snapshot = p.Snapshot()
			} else {
				snapshot = schema.PanelSnapshot{ID: req.PanelID}
			}
			s.queuePanelEvent(schema.PanelEventRemoved, ws.ID, snapshot, ws.active)
		}
		return nil
	})
	if err != nil {
		log.Warn("service panel close failed", "err", err)
		return schema.ClosePanelResponse{}, err
	}
	if resp.Closed {
		log.Info("service panel closed")
	} else {
		log.Debug("service panel close refused or not attached")
	}
	return resp, nil
}

func (s *service) SetActivePanel(ctx context.Context, req schema.SetActivePanelRequest) (schema.SetActivePanelResponse, error) {
	if ctx == nil {
		return schema.SetActivePanelResponse{}, errors.New("missing context")
	}
	log := logx.WithWorkspacePanel(ctx, req.WorkspaceID, req.PanelID)
	var resp schema.SetActivePanelResponse
	err := s.sched.submit(func() error {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ErrWorkspaceNotFound
		}
		if !ws.hasPanel(req.PanelID) && ws.section != req.PanelID {
			return schema.ErrPanelNotFound
		}
		ws.active = req.PanelID
		resp.Workspace = ws.Snapshot(ws.ID == s.activeWS)
		var snapshot schema.PanelSnapshot
		if p := s.panels.get(req.PanelID); p != nil {
			snapshot = p.Snapshot()
		} else {
			snapshot = schema.PanelSnapshot{ID: req.PanelID}
		}
		s.queuePanelEvent(schema.PanelEventActivated, ws.ID, snapshot, ws.active)
		return nil
	})
	if err != nil {
		log.Warn("service panel activate failed", "err", err)
		return schema.SetActivePanelResponse{}, err
	}
	log.Info("service panel activated")
	return resp, nil
}

func (s *service) GetPanel(ctx context.Context, req schema.GetPanelRequest) (schema.GetPanelResponse, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.panels.get(req.PanelID)
	if p == nil {
		return schema.GetPanelResponse{}, schema.ErrPanelNotFound
	}
	return schema.GetPanelResponse{Panel: p.Snapshot()}, nil
}

func (s *service) ListPanels(ctx context.Context, req schema.ListPanelsRequest) (schema.ListPanelsResponse, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var resp schema.ListPanelsResponse
	if req.WorkspaceID != "" {
		ws := s.workspaces[req.WorkspaceID]
		if ws == nil {
			return schema.ListPanelsResponse{}, schema.ErrWorkspaceNotFound
		}
		resp.Panels = make([]schema.PanelSnapshot, 0, len(ws.panels)+1)
		for _, id := range ws.panels {
			if p := s.panels.get(id); p != nil {
				resp.Panels = append(resp.Panels, p.Snapshot())
			}
		}
		if ws.section != "" && !ws.hasPanel(ws.section) {
			if p := s.panels.get(ws.section); p != nil {
				resp.Panels = append(resp.Panels, p.Snapshot())
			}
		}
		return resp, nil
	}
	resp.Panels = make([]schema.PanelSnapshot, 0, s.panels.len())
	for _, p := range s.panels.all() {
		resp.Panels = append(resp.Panels, p.Snapshot())
	}
	return resp, nil
}

func (s *service) TogglePinPanel(ctx context.Context, req schema.TogglePinPanelRequest) (schema.TogglePinPanelResponse, error) {
	if ctx == nil {
		return schema.TogglePinPanelResponse{}, errors.New("missing context")
	}
	log := logx.WithPanel(ctx, req.PanelID)
	var resp schema.TogglePinPanelResponse
	err := s.sched.submit(func() error {
		p := s.panels.get(req.PanelID)
		if p == nil {
			return nil
		}
		p.Pinned = !p.Pinned
		resp.Panel = p.Snapshot()
		resp.Pinned = p.Pinned
		resp.Known = true
		s.queuePanelEvent(schema.PanelEventUpdated, "", resp.Panel, "")
		return nil
	})
	if err != nil {
		log.Warn("service panel pin toggle failed", "err", err)
		return schema.TogglePinPanelResponse{}, err
	}
	if resp.Known {
		log.Info("service panel pin toggled", "pinned", resp.Pinned)
	} else {
		log.Debug("service panel pin toggle ignored, unknown panel")
	}
	return resp, nil
}

func (s *service) SetPanelPinned(ctx context.Context, req schema.SetPanelPinnedRequest) (schema.SetPanelPinnedResponse, error) {
	if ctx == nil {
		return schema.SetPanelPinnedResponse{}, errors.New("missing context")
	}
	log := logx.WithPanel(ctx, req.PanelID)
	var resp schema.SetPanelPinnedResponse
	err := s.sched.submit(func() error {
		p := s.panels.get(req.PanelID)
		if p == nil {
			return schema.ErrPanelNotFound
		}
		if p.Pinned != req.Pinned {
			p.Pinned = req.Pinned
			s.queuePanelEvent(schema.PanelEventUpdated, "", p.Snapshot(), "")
		}
		resp.Panel = p.Snapshot()
		return nil
	})
	if err != nil {
		log.Warn("service panel pin set failed", "err", err)
		return schema.SetPanelPinnedResponse{}, err
	}
	log.Info("service panel pin set", "pinned", req.Pinned)
	return resp, nil
}

func (s *service) SetPanelTitle(ctx context.Context, req schema.SetPanelTitleRequest) (schema.SetPanelTitleResponse, error) {
	if ctx == nil {
		return schema.SetPanelTitleResponse{}, errors.New("missing context")
	}
	log := logx.WithPanel(ctx, req.PanelID)
	var resp schema.SetPanelTitleResponse
	err := s.sched.submit(func() error {
		p := s.panels.get(req.PanelID)
		if p == nil {
			return schema.ErrPanelNotFound
		}
		p.Title = schema.PanelTitle(formatPanelTitle(string(req.Title), s.cfg.PanelTitleMax, s.cfg.PanelTitleSuffix))
		resp.Panel = p.Snapshot()
		s.queuePanelEvent(schema.PanelEventUpdated, "", resp.Panel, "")
		return nil
	})
	if err != nil {
		log.Warn("service panel title set failed", "err", err)
		return schema.SetPanelTitleResponse{}, err
	}
	log.Info("service panel title set", "title", resp.Panel.Title)
	return resp, nil
}

func (s *service) EvictPanel(ctx context.Context, req schema.EvictPanelRequest) (schema.EvictPanelResponse, error) {
	if ctx == nil {
		return schema.EvictPanelResponse{}, errors.New("missing context")
	}
	log := logx.WithPanel(ctx, req.PanelID)
	var resp schema.EvictPanelResponse
	err := s.sched.submit(func() error {
		p := s.panels.get(req.PanelID)
		if p == nil {
			return nil
		}
		snapshot := p.Snapshot()
		s.panels.remove(req.PanelID)
		resp.Evicted = true
		// Cascade: no workspace may keep a reference to an evicted id.
		for _, id := range s.order {
			ws := s.workspaces[id]
			if ws == nil {
				continue
			}
			if ws.detachAll(req.PanelID) {
				s.queueWorkspaceEvent(schema.WorkspaceEventUpdated, ws.Snapshot(ws.ID == s.activeWS))
			}
		}
		s.queuePanelEvent(schema.PanelEventEvicted, "", snapshot, "")
		return nil
	})
	if err != nil {
		log.Warn("service panel evict failed", "err", err)
		return schema.EvictPanelResponse{}, err
	}
	if resp.Evicted {
		log.Info("service panel evicted")
	} else {
		log.Debug("service panel evict ignored, unknown panel")
	}
	return resp, nil
}

func (s *service) ListPanelTypes(ctx context.Context, req schema.ListPanelTypesRequest) (schema.ListPanelTypesResponse, error) {
	_ = ctx
	_ = req
	return schema.ListPanelTypesResponse{Types: s.catalog.Types()}, nil
}

// queueWorkspaceEvent stages an event for delivery after the current batch
// commits. Must be called with the write lock held.
func (s *service) queueWorkspaceEvent(eventType schema.WorkspaceEventType, snapshot schema.WorkspaceSnapshot) {
	if s.sink == nil {
		return
	}
	event := schema.WorkspaceEvent{
		Type:            eventType,
		Workspace:       snapshot,
		ActiveWorkspace: s.activeWS,
	}
	s.pending = append(s.pending, func(sink EventSink) { sink.OnWorkspaceEvent(event) })
}

// queuePanelEvent stages an event for delivery after the current batch
// commits. Must be called with the write lock held.
func (s *service) queuePanelEvent(eventType schema.PanelEventType, workspaceID schema.WorkspaceID, snapshot schema.PanelSnapshot, active schema.PanelID) {
	if s.sink == nil {
		return
	}
	event := schema.PanelEvent{
		Type:        eventType,
		WorkspaceID: workspaceID,
		Panel:       snapshot,
		ActivePanel: active,
	}
	s.pending = append(s.pending, func(sink EventSink) { sink.OnPanelEvent(event) })
}

// flushEvents delivers staged events in commit order. Called by the
// scheduler goroutine after the write lock is released.
func (s *service) flushEvents() {
	staged := s.pending
	s.pending = nil
	for _, deliver := range staged {
		deliver(s.sink)
	}
}

func formatPanelTitle(title string, max int, suffix string) string {
	if max <= 0 {
		return title
	}
	if len(title) <= max {
		return title
	}
	cut := max - len(suffix)
	if cut < 1 {
		return title[:max]
	}
	return title[:cut] + suffix
}
