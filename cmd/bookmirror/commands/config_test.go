package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bookmirror/internal/mirrors"
	"bookmirror/internal/race"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigName)
	require.NoError(t, os.WriteFile(path, []byte(`{
		// added after the built-in mirrors
		mirrors: ["https://custom.example", 42],
		limit: 10,
		timeout: 2.5,
		race_all_mirrors: false,
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookmirror.local.json5"), []byte(`{
		limit: 50,
	}`), 0600))

	previous := *configPath
	*configPath = path
	defer func() { *configPath = previous }()

	cfg := loadConfig()
	require.Equal(t, 50, cfg.Limit)
	require.Equal(t, 2500*time.Millisecond, cfg.timeout())
	require.False(t, cfg.raceAllMirrors())
	require.True(t, cfg.cloudflareBypass())

	reg := resolveRegistry(cfg)
	require.Equal(t, (len(mirrors.DefaultBaseURLs)+1)*2, reg.Len())
}

func TestConfigDefaults(t *testing.T) {
	previous := *configPath
	*configPath = filepath.Join(t.TempDir(), ConfigName)
	defer func() { *configPath = previous }()

	cfg := loadConfig()
	require.Equal(t, race.DefaultTimeout, cfg.timeout())
	require.True(t, cfg.raceAllMirrors())
	require.Equal(t, len(mirrors.DefaultBaseURLs)*2, resolveRegistry(cfg).Len())
}
