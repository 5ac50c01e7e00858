package bootstrap

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pkt.systems/atelier/core"
	"pkt.systems/atelier/schema"
	"pkt.systems/pslog"
)

// CatalogFile is the on-disk panel type catalog format.
type CatalogFile struct {
	CatalogVersion int          `yaml:"catalog_version"`
	Panels         []PanelEntry `yaml:"panels"`
}

// PanelEntry declares one panel type.
type PanelEntry struct {
	Key          string `yaml:"key"`
	Title        string `yaml:"title"`
	RenderTarget string `yaml:"render_target"`
	Section      bool   `yaml:"section"`
}

// CurrentCatalogVersion marks the supported catalog file version.
const CurrentCatalogVersion = 1

const embeddedCatalogPath = "files/panels.yaml"

// DefaultEntries returns the embedded default catalog.
func DefaultEntries() ([]PanelEntry, error) {
	data, err := readEmbeddedFile(embeddedCatalogPath)
	if err != nil {
		return nil, err
	}
	file, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return file.Panels, nil
}

// LoadEntries returns the default catalog with the user file, when present,
// merged on top. User entries override defaults key by key.
func LoadEntries(path string) ([]PanelEntry, error) {
	entries, err := DefaultEntries()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return entries, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, err
	}
	file, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return mergeEntries(entries, file.Panels), nil
}

// PopulateCatalog registers the default and user catalog entries. Returns
// the number of registered type keys. Registration happens before any panel
// creation; the service resolves against the result.
func PopulateCatalog(ctx context.Context, catalog *core.Catalog, userPath string) (int, error) {
	log := pslog.Ctx(ctx)
	entries, err := LoadEntries(userPath)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		err := catalog.Register(schema.PanelTypeKey(entry.Key), schema.PanelDescriptor{
			Title:        schema.PanelTitle(entry.Title),
			RenderTarget: entry.RenderTarget,
			Section:      entry.Section,
		})
		if err != nil {
			return 0, fmt.Errorf("register panel type %q: %w", entry.Key, err)
		}
	}
	log.Info("catalog bootstrapped", "types", catalog.Len(), "user_catalog", userPath)
	return catalog.Len(), nil
}

func parseCatalog(data []byte) (CatalogFile, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return CatalogFile{}, err
	}
	if file.CatalogVersion != CurrentCatalogVersion {
		return CatalogFile{}, fmt.Errorf("unsupported catalog_version %d; expected %d", file.CatalogVersion, CurrentCatalogVersion)
	}
	for _, entry := range file.Panels {
		if err := schema.ValidatePanelTypeKey(schema.PanelTypeKey(entry.Key)); err != nil {
			return CatalogFile{}, fmt.Errorf("panel key %q: %w", entry.Key, err)
		}
		if entry.Title == "" {
			return CatalogFile{}, fmt.Errorf("panel key %q: title is required", entry.Key)
		}
		if entry.RenderTarget == "" {
			return CatalogFile{}, fmt.Errorf("panel key %q: render_target is required", entry.Key)
		}
	}
	return file, nil
}

func mergeEntries(defaults, overrides []PanelEntry) []PanelEntry {
	merged := append([]PanelEntry(nil), defaults...)
	index := make(map[string]int, len(merged))
	for i, entry := range merged {
		index[entry.Key] = i
	}
	for _, entry := range overrides {
		if i, ok := index[entry.Key]; ok {
			merged[i] = entry
			continue
		}
		index[entry.Key] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}
