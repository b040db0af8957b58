package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/tilematch/game/engine"
)

func writeTheme(t *testing.T, dir, name string, config interface{}) string {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeTheme(t, t.TempDir(), "classic.json", engine.DefaultConfig())

	result := validateConfig(path, 20)
	require.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "classic.json", result.File)
	assert.Contains(t, result.Info, "✓ Name: classic")
	assert.Contains(t, result.Info, "✓ Tiles: 24 on a 3x8 grid")
	assert.Contains(t, result.Info, "✓ Slots: 7")
	assert.Contains(t, result.Info, "✓ Clear delay: 800ms")
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "broken",`), 0644))

	result := validateConfig(path, 1)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Invalid JSON")
}

func TestValidateConfig_UnknownField(t *testing.T) {
	raw := map[string]interface{}{}
	data, err := json.Marshal(engine.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["slot_cout"] = 5

	path := writeTheme(t, t.TempDir(), "typo.json", raw)
	result := validateConfig(path, 1)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "slot_cout")
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "nope.json"), 1)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Failed to read file")
}

func TestValidateConfig_EngineRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *engine.GameConfig)
	}{
		{"no symbols", func(c *engine.GameConfig) { c.Symbols = nil }},
		{"duplicate symbols", func(c *engine.GameConfig) { c.Symbols[1] = c.Symbols[0] }},
		{"too few slots", func(c *engine.GameConfig) { c.SlotCount = 2 }},
		{"no regions", func(c *engine.GameConfig) { c.Regions = nil }},
		{"bad status message", func(c *engine.GameConfig) { c.Messages.Status = "Cleared" }},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := engine.DefaultConfig()
			tt.mutate(config)
			path := writeTheme(t, dir, "theme.json", config)

			result := validateConfig(path, 1)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Errors)
			assert.Empty(t, result.Info)
		})
	}
}

func TestValidateOpenings(t *testing.T) {
	result := validateOpenings(engine.DefaultConfig(), 30)
	assert.True(t, result.Valid)
	require.NotEmpty(t, result.Info)
	assert.Contains(t, result.Info[0], "across 30 sample boards")

	skipped := validateOpenings(engine.DefaultConfig(), 0)
	assert.True(t, skipped.Valid)
	assert.Empty(t, skipped.Info)
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "classic.json", engine.DefaultConfig())

	var out bytes.Buffer
	require.NoError(t, validateDir(&out, dir, 5))
	assert.Contains(t, out.String(), "classic.json")
	assert.Contains(t, out.String(), "✅ All configurations are valid!")

	broken := engine.DefaultConfig()
	broken.Columns = 0
	writeTheme(t, dir, "broken.json", broken)

	out.Reset()
	err := validateDir(&out, dir, 5)
	assert.ErrorIs(t, err, errInvalidConfigs)
	assert.Contains(t, out.String(), "❌ INVALID")
	assert.Contains(t, out.String(), "❌ Some configurations have errors")
}

func TestValidateDir_Empty(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, validateDir(&out, t.TempDir(), 5))
}

func TestCommand_DirectoryArgument(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "classic.json", engine.DefaultConfig())

	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	require.NoError(t, cmd.Run(context.Background(), []string{"validate", "--boards", "3", dir}))
	assert.Contains(t, out.String(), "✅ VALID")
}
