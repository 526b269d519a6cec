package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Mirrors []any  `json:"mirrors"`
	Limit   int    `json:"limit"`
	Agent   string `json:"user_agent"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "bookmirror.json5")

	writeFile(t, name, `{
		// json5 allows comments and trailing commas
		mirrors: ["https://a.example"],
		limit: 25,
		user_agent: "default",
	}`)
	writeFile(t, filepath.Join(dir, "bookmirror.local.json5"), `{ limit: 50 }`)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Limit)
	require.Equal(t, "default", cfg.Agent)
	require.Equal(t, []any{"https://a.example"}, cfg.Mirrors)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := ReadOptional[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{}, cfg)
}

func TestReadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "bad.json5")
	writeFile(t, name, `{ limit: `)

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("conf", "a.local.json5"), LocalName(filepath.Join("conf", "a.json5")))
	require.Equal(t, "noext.local", LocalName("noext"))
}
