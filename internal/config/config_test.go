package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rtree "github.com/peterstace/dynrtree"
)

func TestParse(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		cfg, err := Parse(nil)

		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("Overrides", func(t *testing.T) {
		cfg, err := Parse([]byte(`
tree:
  min_entries: 3
  max_entries: 6
  split: linear
log:
  level: debug
  format: json
telemetry:
  enabled: true
  addr: ":9464"
`))

		require.NoError(t, err)
		assert.Equal(t, Tree{MinEntries: 3, MaxEntries: 6, Split: "linear"}, cfg.Tree)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "stderr", cfg.Log.OutputFile)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, ":9464", cfg.Telemetry.Addr)
		assert.Equal(t, "rtreectl", cfg.Telemetry.ServiceName)
		assert.True(t, cfg.Shell.Color)
	})

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"UnknownKey", "tree:\n  fanout: 9\n", "failed to decode config"},
		{"BadType", "tree:\n  max_entries: lots\n", "failed to decode config"},
		{"MinTooLarge", "tree:\n  min_entries: 5\n  max_entries: 8\n", "min entries must be less than or equal to half"},
		{"MaxTooSmall", "tree:\n  min_entries: 1\n  max_entries: 3\n", "max entries must be at least 4"},
		{"UnknownSplit", "tree:\n  split: rstar\n", `unknown split policy "rstar"`},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Parse([]byte(testCase.input))

			assert.ErrorContains(t, err, testCase.expected)
		})
	}
}

func TestValidateWrapsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Tree.MinEntries = 0

	assert.ErrorIs(t, cfg.Validate(), rtree.ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtreectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tree:\n  max_entries: 16\n"), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Tree.MaxEntries)
	assert.Equal(t, 2, cfg.Tree.MinEntries)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestTreeOptions(t *testing.T) {
	opts, err := Tree{MinEntries: 2, MaxEntries: 4, Split: "linear"}.Options()
	require.NoError(t, err)

	tr, err := rtree.New[string, string](2, 4, opts...)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Len())
}
