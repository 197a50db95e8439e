package catalogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogueFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestNewCatalogue_LoadsModulesInOrder(t *testing.T) {
	path := writeCatalogueFile(t, `
modules:
  - id: core/collections
  - id: core/strings
    parallelism: 2
  - id: web/handlers
    extra_args: ["--no-color"]
`)

	c, err := NewCatalogue(Config{CatalogueFile: path})
	require.NoError(t, err)

	modules := c.Modules()
	require.Len(t, modules, 3)
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, "core/collections", modules[0].ID)
	assert.Equal(t, "core/strings", modules[1].ID)
	assert.Equal(t, 2, modules[1].Parallelism)
	assert.Equal(t, "web/handlers", modules[2].ID)
	assert.Equal(t, []string{"--no-color"}, modules[2].ExtraArgs)
}

func TestNewCatalogue_EmptyCatalogueIsValid(t *testing.T) {
	path := writeCatalogueFile(t, "modules: []\n")

	c, err := NewCatalogue(Config{CatalogueFile: path})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Modules())
}

func TestNewCatalogue_MissingFile(t *testing.T) {
	_, err := NewCatalogue(Config{CatalogueFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalogue file")
}

func TestNewCatalogue_FileRequired(t *testing.T) {
	_, err := NewCatalogue(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalogue file is required")
}

func TestNewCatalogue_RejectsEmptyID(t *testing.T) {
	path := writeCatalogueFile(t, `
modules:
  - id: core/a
  - id: ""
`)

	_, err := NewCatalogue(Config{CatalogueFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty id")
}

func TestNewCatalogue_RejectsDuplicateID(t *testing.T) {
	path := writeCatalogueFile(t, `
modules:
  - id: core/a
  - id: core/a
`)

	_, err := NewCatalogue(Config{CatalogueFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate module id")
}

func TestNewCatalogue_RejectsArtifactNameCollision(t *testing.T) {
	// "core/a" and "core_a" both sanitize to "core_a"
	path := writeCatalogueFile(t, `
modules:
  - id: core/a
  - id: core_a
`)

	_, err := NewCatalogue(Config{CatalogueFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sanitize to the same artifact name")
}

func TestNewCatalogue_RejectsReservedArtifactNames(t *testing.T) {
	// "all" would claim all.log, the combined log's spot
	path := writeCatalogueFile(t, `
modules:
  - id: all
`)

	_, err := NewCatalogue(Config{CatalogueFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved artifact name")
}

func TestNewCatalogue_RejectsNegativeParallelism(t *testing.T) {
	path := writeCatalogueFile(t, `
modules:
  - id: core/a
    parallelism: -1
`)

	_, err := NewCatalogue(Config{CatalogueFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative parallelism")
}

func TestNewCatalogue_RejectsMalformedYAML(t *testing.T) {
	path := writeCatalogueFile(t, "modules: [unclosed\n")

	_, err := NewCatalogue(Config{CatalogueFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalogue file")
}

func TestCatalogue_ModulesReturnsACopy(t *testing.T) {
	path := writeCatalogueFile(t, `
modules:
  - id: core/a
  - id: core/b
`)

	c, err := NewCatalogue(Config{CatalogueFile: path})
	require.NoError(t, err)

	modules := c.Modules()
	modules[0].ID = "mutated"
	assert.Equal(t, "core/a", c.Modules()[0].ID)
}
