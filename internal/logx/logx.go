package logx

import (
	"context"

	"pkt.systems/atelier/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	workspaceKey contextKey = iota
	panelKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithWorkspace annotates the logger with the workspace id if present.
func WithWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if workspaceID != "" {
		if current, ok := ctx.Value(workspaceKey).(schema.WorkspaceID); ok && current == workspaceID {
			return log
		}
		log = log.With("workspace", workspaceID)
	}
	return log
}

// WithWorkspacePanel annotates the logger with workspace and panel identifiers.
func WithWorkspacePanel(ctx context.Context, workspaceID schema.WorkspaceID, panelID schema.PanelID) pslog.Logger {
	log := WithWorkspace(ctx, workspaceID)
	if panelID != "" {
		if current, ok := ctx.Value(panelKey).(schema.PanelID); ok && current == panelID {
			return log
		}
		log = log.With("panel", panelID)
	}
	return log
}

// WithPanel annotates the logger with a panel id when available.
func WithPanel(ctx context.Context, panelID schema.PanelID) pslog.Logger {
	return WithWorkspacePanel(ctx, "", panelID)
}

// WithType annotates the logger with a panel type key when available.
func WithType(log pslog.Logger, key schema.PanelTypeKey) pslog.Logger {
	if key != "" {
		log = log.With("type", key)
	}
	return log
}

// ContextWithWorkspace stores the workspace marker on the context for log
// de-duplication.
func ContextWithWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) context.Context {
	if ctx == nil || workspaceID == "" {
		return ctx
	}
	return context.WithValue(ctx, workspaceKey, workspaceID)
}

// ContextWithPanel stores the panel marker on the context for log
// de-duplication.
func ContextWithPanel(ctx context.Context, panelID schema.PanelID) context.Context {
	if ctx == nil || panelID == "" {
		return ctx
	}
	return context.WithValue(ctx, panelKey, panelID)
}

// ContextWithWorkspaceLogger attaches the logger and workspace marker to the
// context.
func ContextWithWorkspaceLogger(ctx context.Context, log pslog.Logger, workspaceID schema.WorkspaceID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithWorkspace(ctx, workspaceID)
}
