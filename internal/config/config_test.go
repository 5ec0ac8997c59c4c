package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes an mljob.jsonc into a fresh temp dir and returns
// the dir. t.TempDir handles cleanup.
func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(contents), 0o644)
	require.NoError(t, err)
	return dir
}

// TestLoad_MissingFile verifies that a missing mljob.jsonc yields the
// built-in defaults rather than an error.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "nvcr.io", cfg.Registry)
	assert.Equal(t, "latest", cfg.Tag)
	assert.Equal(t, "mpirun", cfg.Launcher)
}

// TestLoad_JSONCComments verifies that comments and trailing commas in
// the config file are tolerated, matching the JSONC convention.
func TestLoad_JSONCComments(t *testing.T) {
	dir := writeConfig(t, `{
		// project image
		"registry": "registry.example.com",
		"repository": "team/trainer",
		"tag": "v1.2", /* pinned */
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "registry.example.com", cfg.Registry)
	assert.Equal(t, "team/trainer", cfg.Repository)
	assert.Equal(t, "v1.2", cfg.Tag)
}

// TestLoad_MalformedFile verifies that a file which exists but cannot be
// parsed is surfaced as a configuration error, never silently ignored.
func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, `{"registry": `)

	_, err := Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

// TestLoad_EnvOverridesFile verifies the precedence order:
// environment > file > defaults.
func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `{"registry": "from-file.io", "tag": "file-tag"}`)

	t.Setenv(EnvRegistry, "from-env.io")
	t.Setenv(EnvVersion, "5.0.0")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env.io", cfg.Registry, "env must override the file")
	assert.Equal(t, "file-tag", cfg.Tag, "file must override the default")
	assert.Equal(t, "5.0.0", cfg.Version)
}

// TestLoad_EmptyRepositoryRejected verifies validation of fields the
// dispatch paths depend on.
func TestLoad_EmptyRepositoryRejected(t *testing.T) {
	dir := writeConfig(t, `{"repository": ""}`)

	_, err := Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "repository")
}

// TestImageRef verifies reference assembly with and without a registry.
func TestImageRef(t *testing.T) {
	cfg := &Config{Registry: "nvcr.io", Repository: "nvidia/tao/tao-toolkit", Tag: "5.0"}
	assert.Equal(t, "nvcr.io/nvidia/tao/tao-toolkit:5.0", cfg.ImageRef())

	cfg.Registry = ""
	assert.Equal(t, "nvidia/tao/tao-toolkit:5.0", cfg.ImageRef())
}

// TestEffectiveBuildArgs verifies VERSION injection without mutating the
// configured map.
func TestEffectiveBuildArgs(t *testing.T) {
	cfg := &Config{
		BuildArgs: map[string]string{"BASE_IMAGE": "cuda:12.2"},
		Version:   "5.0.0",
	}

	args := cfg.EffectiveBuildArgs()
	assert.Equal(t, "cuda:12.2", args["BASE_IMAGE"])
	assert.Equal(t, "5.0.0", args["VERSION"])

	_, stored := cfg.BuildArgs["VERSION"]
	assert.False(t, stored, "the configured map must not be mutated")
}
