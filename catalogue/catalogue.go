// Package catalogue loads and validates the fixed, ordered list of test
// modules the orchestrator runs. The catalogue is configuration, not
// discovery: operators control isolation granularity by editing the file.
package catalogue

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/testinfra/modrun/logging"
	"github.com/testinfra/modrun/types"
)

// Catalogue manages the module list and its configuration
type Catalogue struct {
	config  Config
	modules []types.Module
	mu      sync.RWMutex
}

// Config contains catalogue configuration
type Config struct {
	Log           *zap.SugaredLogger
	CatalogueFile string
}

// catalogueFile is the YAML document shape of a catalogue file
type catalogueFile struct {
	Modules []types.Module `yaml:"modules"`
}

// NewCatalogue loads a catalogue file and validates it
func NewCatalogue(cfg Config) (*Catalogue, error) {
	if cfg.CatalogueFile == "" {
		return nil, fmt.Errorf("catalogue file is required")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}

	c := &Catalogue{
		config: cfg,
	}

	if err := c.loadModules(cfg.CatalogueFile); err != nil {
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}

	cfg.Log.Debugw("Catalogue loaded", "len(modules)", len(c.modules))

	return c, nil
}

// loadModules reads and validates the catalogue file
func (c *Catalogue) loadModules(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalogue file: %w", err)
	}

	var doc catalogueFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse catalogue file: %w", err)
	}

	if err := c.validateModules(doc.Modules); err != nil {
		return err
	}

	c.modules = doc.Modules
	return nil
}

// validateModules rejects malformed catalogues at startup: empty IDs,
// duplicate IDs, and distinct IDs whose sanitized artifact names collide.
func (c *Catalogue) validateModules(modules []types.Module) error {
	seen := make(map[string]struct{}, len(modules))
	artifactNames := make(map[string]string, len(modules))

	for i, m := range modules {
		if m.ID == "" {
			return fmt.Errorf("module at index %d has an empty id", i)
		}
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("duplicate module id %q", m.ID)
		}
		seen[m.ID] = struct{}{}

		if m.Parallelism < 0 {
			return fmt.Errorf("module %q has negative parallelism %d", m.ID, m.Parallelism)
		}

		// Artifact names must map one-to-one to module IDs; a collision would
		// silently overwrite another module's log.
		name := logging.SafeFilename(m.ID)
		if other, ok := artifactNames[name]; ok {
			return fmt.Errorf("module ids %q and %q sanitize to the same artifact name %q", other, m.ID, name)
		}
		artifactNames[name] = m.ID

		// all.log and summary.log/.json live next to the artifacts
		if name == "all" || name == "summary" {
			return fmt.Errorf("module id %q sanitizes to the reserved artifact name %q", m.ID, name)
		}

		// IDs are opaque by contract. Flag ones that look like malformed
		// import paths since that is the common naming scheme.
		if err := module.CheckImportPath(m.ID); err != nil {
			c.config.Log.Warnw("Module id is not a well-formed path", "module", m.ID, "reason", err)
		}
	}
	return nil
}

// Modules returns the catalogue entries in file order
func (c *Catalogue) Modules() []types.Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// Size returns the number of catalogue entries
func (c *Catalogue) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.modules)
}
