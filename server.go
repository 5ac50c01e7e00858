package atelier

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/atelier/bootstrap"
	"pkt.systems/atelier/core"
	"pkt.systems/atelier/httpapi"
	"pkt.systems/atelier/schema"
	"pkt.systems/pslog"
)

// Server composes the orchestration service and its HTTP API.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service     schema.ServiceConfig
	HTTP        httpapi.Config
	CatalogFile string
	HubHistory  int
	Workspaces  []SeedWorkspace
}

// SeedWorkspace declares a workspace created at startup.
type SeedWorkspace struct {
	Name   string
	Panels []SeedPanel
}

// SeedPanel declares a panel created inside a seed workspace.
type SeedPanel struct {
	Type  string
	Title string
	NoTab bool
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
}

// New constructs an atelier server: catalog bootstrap, core service, and
// HTTP surface wired together.
func New(cfg ServerConfig, deps ServerDeps) (Server, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	logger := deps.ServiceDeps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	ctx := pslog.ContextWithLogger(context.Background(), logger)

	serviceDeps := deps.ServiceDeps
	if serviceDeps.Catalog == nil {
		catalog, err := core.NewCatalog(cfg.Service, logger)
		if err != nil {
			return nil, err
		}
		serviceDeps.Catalog = catalog
	}
	// The catalog must be populated before any panel creation.
	if _, err := bootstrap.PopulateCatalog(ctx, serviceDeps.Catalog, cfg.CatalogFile); err != nil {
		return nil, err
	}

	hub := httpapi.NewHub(cfg.HubHistory)
	if serviceDeps.EventSink == nil {
		serviceDeps.EventSink = hub
	} else {
		serviceDeps.EventSink = eventFanout{sinks: []core.EventSink{serviceDeps.EventSink, hub}}
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}

	return &compositeServer{
		cfg:     cfg,
		service: service,
		httpSrv: httpapi.NewServer(cfg.HTTP, service, hub),
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	service core.Service
	httpSrv *httpapi.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"seed_workspaces", len(s.cfg.Workspaces),
	)
	if err := s.seedWorkspaces(s.ctx); err != nil {
		log.Error("server seed failed", "err", err)
		return err
	}
	go func() {
		if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
			log.Error("http server failed", "err", err)
			s.errCh <- err
		}
	}()
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if err := s.service.Close(); err != nil {
		log.Warn("server service close failed", "err", err)
	} else {
		log.Info("server service close ok")
	}
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}

// seedWorkspaces creates the configured startup workspaces and panels. The
// first created workspace auto-activates.
func (s *compositeServer) seedWorkspaces(ctx context.Context) error {
	for _, seed := range s.cfg.Workspaces {
		wsResp, err := s.service.CreateWorkspace(ctx, schema.CreateWorkspaceRequest{
			Name: schema.WorkspaceName(seed.Name),
		})
		if err != nil {
			return err
		}
		for _, panel := range seed.Panels {
			_, err := s.service.CreatePanel(ctx, schema.CreatePanelRequest{
				WorkspaceID: wsResp.Workspace.ID,
				TypeKey:     schema.PanelTypeKey(panel.Type),
				Title:       schema.PanelTitle(panel.Title),
				NoTab:       panel.NoTab,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
