package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-scraper/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing file uses defaults", path: filepath.Join(dir, "missing.yaml")},
		{name: "valid file", path: writeFile(t, dir, "ok.yaml", "urls: [https://a.com]\n")},
		{name: "bad yaml", path: writeFile(t, dir, "bad.yaml", "urls: [https://a.com\n"), wantErr: "failed to parse config file"},
		{name: "unknown engine", path: writeFile(t, dir, "engine.yaml", "urls: [https://a.com]\nengine: chrome\n"), wantErr: "unknown engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, config.DefaultPagesPerLaunch, cfg.PagesPerLaunch)
		})
	}
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	invalid := writeFile(t, dir, "invalid.yaml", "urls: [https://a.com]\nengine: chrome\n")
	broken := writeFile(t, dir, "broken.yaml", "urls: [https://a.com\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "invalid config fails", args: []string{"-config", invalid, "-output", dir}, code: 1},
		{name: "unparsable config fails", args: []string{"-config", broken, "-output", dir}, code: 1},
		{name: "invalid flag value fails", args: []string{"-config", filepath.Join(dir, "none.yaml"), "-store", "mongo"}, code: 1},
		{name: "nothing to do succeeds", args: []string{"-config", filepath.Join(dir, "none.yaml"), "-output", dir}, code: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, run(tt.args))
		})
	}
}
