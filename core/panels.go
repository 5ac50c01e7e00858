package core

import (
	"sort"

	"pkt.systems/atelier/schema"
)

// panelStore owns the live panel instances. It is not safe for concurrent
// use on its own; the service scheduler serializes all access.
type panelStore struct {
	panels map[schema.PanelID]*panel
}

func newPanelStore() *panelStore {
	return &panelStore{panels: make(map[schema.PanelID]*panel)}
}

func (s *panelStore) register(p *panel) error {
	if _, exists := s.panels[p.ID]; exists {
		return schema.ErrDuplicatePanelID
	}
	s.panels[p.ID] = p
	return nil
}

func (s *panelStore) get(id schema.PanelID) *panel {
	return s.panels[id]
}

// remove evicts an instance regardless of pin state. Removing an absent id
// is a no-op.
func (s *panelStore) remove(id schema.PanelID) bool {
	if _, exists := s.panels[id]; !exists {
		return false
	}
	delete(s.panels, id)
	return true
}

func (s *panelStore) len() int {
	return len(s.panels)
}

// all returns the live instances ordered by creation time, id as the
// tie-break.
func (s *panelStore) all() []*panel {
	out := make([]*panel, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
