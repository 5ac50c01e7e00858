package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidWorkspaceName indicates an invalid workspace name.
	ErrInvalidWorkspaceName = errors.New("invalid workspace name")
	// ErrInvalidPanelType indicates an invalid panel type key.
	ErrInvalidPanelType = errors.New("invalid panel type key")
	// ErrWorkspaceNotFound indicates a requested workspace could not be found.
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrPanelNotFound indicates a requested panel instance could not be found.
	ErrPanelNotFound = errors.New("panel not found")
	// ErrUnknownPanelType indicates a catalog miss under the reject policy.
	ErrUnknownPanelType = errors.New("unknown panel type")
	// ErrDuplicatePanelID indicates an explicit panel id collided with an
	// existing instance.
	ErrDuplicatePanelID = errors.New("duplicate panel id")
	// ErrServiceClosed indicates the service scheduler has shut down.
	ErrServiceClosed = errors.New("service closed")
)
