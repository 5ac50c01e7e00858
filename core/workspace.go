package core

import "pkt.systems/atelier/schema"

// workspace tracks one workspace: its ordered tab list, activation, the
// exclusive section slot, and the context bag. The tab list and the section
// slot are independent dimensions; a panel may occupy both.
type workspace struct {
	ID      schema.WorkspaceID
	Name    schema.WorkspaceName
	panels  []schema.PanelID
	active  schema.PanelID
	section schema.PanelID
	context map[string]any
}

func newWorkspace(id schema.WorkspaceID, name schema.WorkspaceName) *workspace {
	return &workspace{ID: id, Name: name}
}

func (w *workspace) hasPanel(id schema.PanelID) bool {
	for _, current := range w.panels {
		if current == id {
			return true
		}
	}
	return false
}

// detach removes the panel from the tab list and repairs activation: the
// first remaining tab becomes active, or none when the list is empty.
// Returns false when the panel was not a tab.
func (w *workspace) detach(id schema.PanelID) bool {
	if !w.hasPanel(id) {
		return false
	}
	w.panels = removePanelID(w.panels, id)
	if w.active == id {
		if len(w.panels) > 0 {
			w.active = w.panels[0]
		} else {
			w.active = ""
		}
	}
	return true
}

// detachAll removes the panel from both dimensions, the tab list and the
// section slot, and repairs activation. Returns false when the panel was
// attached to neither.
func (w *workspace) detachAll(id schema.PanelID) bool {
	detached := w.detach(id)
	if w.section == id {
		w.section = ""
		detached = true
	}
	if w.active == id {
		if len(w.panels) > 0 {
			w.active = w.panels[0]
		} else {
			w.active = ""
		}
	}
	return detached
}

// mergeContext shallow-merges values into the context bag; existing keys
// not named in values are kept.
func (w *workspace) mergeContext(values map[string]any) {
	if len(values) == 0 {
		return
	}
	if w.context == nil {
		w.context = make(map[string]any, len(values))
	}
	for key, value := range values {
		w.context[key] = value
	}
}

// Snapshot returns a transport-friendly view of the workspace. The tab list
// and context bag are copied; context values are shared and must be treated
// as immutable by readers.
func (w *workspace) Snapshot(active bool) schema.WorkspaceSnapshot {
	var contextCopy map[string]any
	if len(w.context) > 0 {
		contextCopy = make(map[string]any, len(w.context))
		for key, value := range w.context {
			contextCopy[key] = value
		}
	}
	return schema.WorkspaceSnapshot{
		ID:           w.ID,
		Name:         w.Name,
		PanelIDs:     append([]schema.PanelID(nil), w.panels...),
		ActivePanel:  w.active,
		SectionPanel: w.section,
		Context:      contextCopy,
		Active:       active,
	}
}

func removePanelID(order []schema.PanelID, id schema.PanelID) []schema.PanelID {
	for i, current := range order {
		if current == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
