package schema

import "strings"

// ValidatePanelTypeKey ensures a type key matches [a-z0-9._-] with no
// normalization. Keys are globally unique by convention.
func ValidatePanelTypeKey(key PanelTypeKey) error {
	raw := string(key)
	if raw == "" {
		return ErrInvalidPanelType
	}
	if strings.TrimSpace(raw) != raw {
		return ErrInvalidPanelType
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidPanelType
	}
	return nil
}

// NormalizeWorkspaceName trims and validates a workspace name.
func NormalizeWorkspaceName(name WorkspaceName) (WorkspaceName, error) {
	trimmed := strings.TrimSpace(string(name))
	if trimmed == "" {
		return "", ErrInvalidWorkspaceName
	}
	return WorkspaceName(trimmed), nil
}
