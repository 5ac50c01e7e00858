package core

import (
	"context"

	"pkt.systems/atelier/schema"
)

// Service is the transport-agnostic API for orchestrating workspaces and
// panel instances.
type Service interface {
	CreateWorkspace(ctx context.Context, req schema.CreateWorkspaceRequest) (schema.CreateWorkspaceResponse, error)
	SwitchWorkspace(ctx context.Context, req schema.SwitchWorkspaceRequest) (schema.SwitchWorkspaceResponse, error)
	ListWorkspaces(ctx context.Context, req schema.ListWorkspacesRequest) (schema.ListWorkspacesResponse, error)
	GetWorkspace(ctx context.Context, req schema.GetWorkspaceRequest) (schema.GetWorkspaceResponse, error)
	SetWorkspaceContext(ctx context.Context, req schema.SetWorkspaceContextRequest) (schema.SetWorkspaceContextResponse, error)
	CreatePanel(ctx context.Context, req schema.CreatePanelRequest) (schema.CreatePanelResponse, error)
	RegisterPanel(ctx context.Context, req schema.RegisterPanelRequest) (schema.RegisterPanelResponse, error)
	AddPanel(ctx context.Context, req schema.AddPanelRequest) (schema.AddPanelResponse, error)
	RemovePanel(ctx context.Context, req schema.RemovePanelRequest) (schema.RemovePanelResponse, error)
	ClosePanel(ctx context.Context, req schema.ClosePanelRequest) (schema.ClosePanelResponse, error)
	SetActivePanel(ctx context.Context, req schema.SetActivePanelRequest) (schema.SetActivePanelResponse, error)
	GetPanel(ctx context.Context, req schema.GetPanelRequest) (schema.GetPanelResponse, error)
	ListPanels(ctx context.Context, req schema.ListPanelsRequest) (schema.ListPanelsResponse, error)
	TogglePinPanel(ctx context.Context, req schema.TogglePinPanelRequest) (schema.TogglePinPanelResponse, error)
	SetPanelPinned(ctx context.Context, req schema.SetPanelPinnedRequest) (schema.SetPanelPinnedResponse, error)
	SetPanelTitle(ctx context.Context, req schema.SetPanelTitleRequest) (schema.SetPanelTitleResponse, error)
	EvictPanel(ctx context.Context, req schema.EvictPanelRequest) (schema.EvictPanelResponse, error)
	ListPanelTypes(ctx context.Context, req schema.ListPanelTypesRequest) (schema.ListPanelTypesResponse, error)
	Close() error
}
