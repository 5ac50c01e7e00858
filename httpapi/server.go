package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/atelier/core"
	"pkt.systems/atelier/internal/logx"
	"pkt.systems/atelier/schema"
)

// Server serves the orchestration API consumed by the presentation layer.
type Server struct {
	cfg      Config
	service  core.Service
	hub      *Hub
	basePath string
	baseHref string
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, service core.Service, hub *Hub) *Server {
	return &Server{
		cfg:      cfg,
		service:  service,
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
		baseHref: buildBaseHref(cfg.BaseURL, cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/workspaces", s.handleWorkspaces)
	mux.HandleFunc("/api/workspaces/switch", s.handleSwitchWorkspace)
	mux.HandleFunc("/api/workspaces/context", s.handleWorkspaceContext)
	mux.HandleFunc("/api/panels", s.handlePanels)
	mux.HandleFunc("/api/panels/register", s.handleRegisterPanel)
	mux.HandleFunc("/api/panels/add", s.handleAddPanel)
	mux.HandleFunc("/api/panels/remove", s.handleRemovePanel)
	mux.HandleFunc("/api/panels/close", s.handleClosePanel)
	mux.HandleFunc("/api/panels/activate", s.handleActivatePanel)
	mux.HandleFunc("/api/panels/pin", s.handlePinPanel)
	mux.HandleFunc("/api/panels/title", s.handlePanelTitle)
	mux.HandleFunc("/api/panels/evict", s.handleEvictPanel)
	mux.HandleFunc("/api/types", s.handleTypes)
	mux.HandleFunc("/api/stream", s.handleStream)

	handler := withRequestLogging(mux)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	switch r.Method {
	case http.MethodGet:
		if id := r.URL.Query().Get("workspace_id"); id != "" {
			resp, err := s.service.GetWorkspace(r.Context(), schema.GetWorkspaceRequest{WorkspaceID: schema.WorkspaceID(id)})
			if err != nil {
				log.Warn("http workspace get failed", "err", err)
				writeError(w, errorStatus(err), err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
		resp, err := s.service.ListWorkspaces(r.Context(), schema.ListWorkspacesRequest{})
		if err != nil {
			log.Warn("http workspaces list failed", "err", err)
			writeError(w, errorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Debug("http workspaces list ok", "count", len(resp.Workspaces))
	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			log.Warn("http workspaces decode failed", "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := s.service.CreateWorkspace(r.Context(), schema.CreateWorkspaceRequest{
			Name: schema.WorkspaceName(payload.Name),
		})
		if err != nil {
			log.Warn("http workspaces create failed", "err", err)
			writeError(w, errorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Info("http workspaces create ok", "workspace", resp.Workspace.ID, "name", resp.Workspace.Name)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSwitchWorkspace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		WorkspaceID string `json:"workspace_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http switch decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SwitchWorkspace(r.Context(), schema.SwitchWorkspaceRequest{
		WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
	})
	if err != nil {
		log.Warn("http switch failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http switch ok", "workspace", payload.WorkspaceID, "switched", resp.Switched)
}

func (s *Server) handleWorkspaceContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		WorkspaceID string         `json:"workspace_id"`
		Context     map[string]any `json:"context"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http context decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SetWorkspaceContext(r.Context(), schema.SetWorkspaceContextRequest{
		WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
		Context:     payload.Context,
	})
	if err != nil {
		log.Warn("http context merge failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http context merge ok", "workspace", payload.WorkspaceID, "keys", len(payload.Context))
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	switch r.Method {
	case http.MethodGet:
		if id := r.URL.Query().Get("panel_id"); id != "" {
			resp, err := s.service.GetPanel(r.Context(), schema.GetPanelRequest{PanelID: schema.PanelID(id)})
			if err != nil {
				log.Warn("http panel get failed", "err", err)
				writeError(w, errorStatus(err), err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
		resp, err := s.service.ListPanels(r.Context(), schema.ListPanelsRequest{
			WorkspaceID: schema.WorkspaceID(r.URL.Query().Get("workspace_id")),
		})
		if err != nil {
			log.Warn("http panels list failed", "err", err)
			writeError(w, errorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Debug("http panels list ok", "count", len(resp.Panels))
	case http.MethodPost:
		var payload struct {
			WorkspaceID string `json:"workspace_id"`
			Type        string `json:"type"`
			Title       string `json:"title"`
			NoTab       bool   `json:"no_tab"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			log.Warn("http panels decode failed", "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := s.service.CreatePanel(r.Context(), schema.CreatePanelRequest{
			WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
			TypeKey:     schema.PanelTypeKey(payload.Type),
			Title:       schema.PanelTitle(payload.Title),
			NoTab:       payload.NoTab,
		})
		if err != nil {
			log.Warn("http panels create failed", "err", err)
			writeError(w, errorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Info("http panels create ok", "panel", resp.Panel.ID, "type", resp.Panel.TypeKey)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegisterPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		Type    string `json:"type"`
		PanelID string `json:"panel_id"`
		Title   string `json:"title"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http register decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.RegisterPanel(r.Context(), schema.RegisterPanelRequest{
		TypeKey: schema.PanelTypeKey(payload.Type),
		PanelID: schema.PanelID(payload.PanelID),
		Title:   schema.PanelTitle(payload.Title),
	})
	if err != nil {
		log.Warn("http register failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http register ok", "panel", resp.Panel.ID)
}

type panelWorkspacePayload struct {
	WorkspaceID string `json:"workspace_id"`
	PanelID     string `json:"panel_id"`
}

func (s *Server) handleAddPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload panelWorkspacePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http add decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.AddPanel(r.Context(), schema.AddPanelRequest{
		WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
		PanelID:     schema.PanelID(payload.PanelID),
	})
	if err != nil {
		log.Warn("http add failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http add ok", "workspace", payload.WorkspaceID, "panel", payload.PanelID)
}

func (s *Server) handleRemovePanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload panelWorkspacePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http remove decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.RemovePanel(r.Context(), schema.RemovePanelRequest{
		WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
		PanelID:     schema.PanelID(payload.PanelID),
	})
	if err != nil {
		log.Warn("http remove failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http remove ok", "workspace", payload.WorkspaceID, "panel", payload.PanelID, "removed", resp.Removed)
}

func (s *Server) handleClosePanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload panelWorkspacePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http close decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ClosePanel(r.Context(), schema.ClosePanelRequest{
		WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
		PanelID:     schema.PanelID(payload.PanelID),
	})
	if err != nil {
		log.Warn("http close failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http close ok", "workspace", payload.WorkspaceID, "panel", payload.PanelID, "closed", resp.Closed)
}

func (s *Server) handleActivatePanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload panelWorkspacePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http activate decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SetActivePanel(r.Context(), schema.SetActivePanelRequest{
		WorkspaceID: schema.WorkspaceID(payload.WorkspaceID),
		PanelID:     schema.PanelID(payload.PanelID),
	})
	if err != nil {
		log.Warn("http activate failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http activate ok", "workspace", payload.WorkspaceID, "panel", payload.PanelID)
}

func (s *Server) handlePinPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		PanelID string `json:"panel_id"`
		Pinned  *bool  `json:"pinned"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http pin decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// Without an explicit value the pin flips; with one it is set.
	if payload.Pinned == nil {
		resp, err := s.service.TogglePinPanel(r.Context(), schema.TogglePinPanelRequest{
			PanelID: schema.PanelID(payload.PanelID),
		})
		if err != nil {
			log.Warn("http pin toggle failed", "err", err)
			writeError(w, errorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Info("http pin toggle ok", "panel", payload.PanelID, "pinned", resp.Pinned)
		return
	}
	resp, err := s.service.SetPanelPinned(r.Context(), schema.SetPanelPinnedRequest{
		PanelID: schema.PanelID(payload.PanelID),
		Pinned:  *payload.Pinned,
	})
	if err != nil {
		log.Warn("http pin set failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http pin set ok", "panel", payload.PanelID, "pinned", *payload.Pinned)
}

func (s *Server) handlePanelTitle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		PanelID string `json:"panel_id"`
		Title   string `json:"title"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http title decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SetPanelTitle(r.Context(), schema.SetPanelTitleRequest{
		PanelID: schema.PanelID(payload.PanelID),
		Title:   schema.PanelTitle(payload.Title),
	})
	if err != nil {
		log.Warn("http title failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http title ok", "panel", payload.PanelID, "title", resp.Panel.Title)
}

func (s *Server) handleEvictPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		PanelID string `json:"panel_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http evict decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.EvictPanel(r.Context(), schema.EvictPanelRequest{
		PanelID: schema.PanelID(payload.PanelID),
	})
	if err != nil {
		log.Warn("http evict failed", "err", err)
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http evict ok", "panel", payload.PanelID, "evicted", resp.Evicted)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.ListPanelTypes(r.Context(), schema.ListPanelTypesRequest{})
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	snapshot := s.buildSnapshot(r)
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
		flusher.Flush()
	}

	ch, unsubscribe, _, _ := s.hub.Subscribe()
	defer unsubscribe()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "workspaces", len(snapshot.Workspaces))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event := <-ch:
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) buildSnapshot(r *http.Request) SnapshotPayload {
	ctx := r.Context()
	payload := SnapshotPayload{BaseHref: s.baseHref}
	if resp, err := s.service.ListWorkspaces(ctx, schema.ListWorkspacesRequest{}); err == nil {
		payload.Workspaces = resp.Workspaces
		payload.ActiveWorkspace = resp.ActiveWorkspace
	}
	if resp, err := s.service.ListPanels(ctx, schema.ListPanelsRequest{}); err == nil {
		payload.Panels = resp.Panels
	}
	if resp, err := s.service.ListPanelTypes(ctx, schema.ListPanelTypesRequest{}); err == nil {
		payload.Types = resp.Types
	}
	return payload
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, schema.ErrWorkspaceNotFound),
		errors.Is(err, schema.ErrPanelNotFound),
		errors.Is(err, schema.ErrUnknownPanelType):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrDuplicatePanelID):
		return http.StatusConflict
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidWorkspaceName),
		errors.Is(err, schema.ErrInvalidPanelType):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
