package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, MarkSweep, cfg.Variant)
	assert.Equal(t, uint64(64<<20), cfg.HeapSize)
	assert.Equal(t, 0, cfg.ParallelWorkers)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taggc.yaml")
	body := "variant: semispace\nheap_size: 1048576\nparallel_workers: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load("taggc", dir)
	require.NoError(t, err)
	assert.Equal(t, SemiSpace, cfg.Variant)
	assert.Equal(t, uint64(1048576), cfg.HeapSize)
	assert.Equal(t, 4, cfg.ParallelWorkers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TAGGC_VARIANT", "marksweeplegacy")
	t.Setenv("TAGGC_HEAP_SIZE", "2097152")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, MarkSweepLegacy, cfg.Variant)
	assert.Equal(t, uint64(2097152), cfg.HeapSize)
}

func TestValidateRejectsUnknownVariant(t *testing.T) {
	cfg := defaults()
	cfg.Variant = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroHeap(t *testing.T) {
	cfg := defaults()
	cfg.HeapSize = 0
	assert.Error(t, cfg.Validate())
}
