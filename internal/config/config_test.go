package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
label: "where? "
multi: true
directory_only: true
history_limit: 10
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "where? ", cfg.Label)
	assert.True(t, cfg.Multi)
	assert.True(t, cfg.DirectoryOnly)
	assert.Equal(t, 10, cfg.HistoryLimit)

	level, err := cfg.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestLoadPartialFileKeepsRemainingDefaults(t *testing.T) {
	path := writeConfig(t, `multi: true`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Multi)
	assert.Equal(t, Default().Label, cfg.Label)
	assert.Equal(t, Default().HistoryLimit, cfg.HistoryLimit)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := writeConfig(t, `label: [`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, `history_limit: -1`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `log_level: loud`))
	assert.Error(t, err)
}
