package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var c Config
	require.NoError(t, yaml.Unmarshal(data, &c))

	assert.Equal(t, 3034, c.Server.Port)
	assert.Equal(t, "config.json", c.Paths.SettingsPath)
	assert.Equal(t, DefaultAPIURL, c.Twitch.APIURL)
	assert.Equal(t, time.Minute*5, c.Twitch.RefreshMargin)
}

func TestWriteDefaultKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("auto_archive: true\n"), 0644))

	err := WriteDefault(path)
	assert.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "auto_archive: true\n", string(data))
}
