package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filter-panel/panel/internal/interfaces"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	manager, err := NewManager()
	require.NoError(t, err)
	return manager
}

func TestDefaultConfigCreatedOnFirstLoad(t *testing.T) {
	manager := newTestManager(t)

	profile, err := manager.LoadProfile("default")
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8888/ws", profile.ChannelURL)
	assert.Equal(t, "http://localhost:8888", profile.RulesURL)
	assert.Equal(t, time.Second, profile.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, profile.Retry.DelayCeiling)
	assert.Equal(t, 5, profile.Retry.MaxAttempts)
	assert.Equal(t, DefaultLogRetention, profile.LogRetention)

	// The file lands under the XDG config dir with owner-only permissions
	info, err := os.Stat(manager.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Equal(t, "profiles.yaml", filepath.Base(manager.GetConfigPath()))
}

func TestSaveAndReloadProfile(t *testing.T) {
	manager := newTestManager(t)

	profile := &interfaces.Profile{
		Name:       "staging",
		ChannelURL: "ws://proxy.internal:9999/ws",
		RulesURL:   "http://proxy.internal:9999",
		Theme:      "monokai",
		Retry: interfaces.RetryConfig{
			BaseDelay:    500 * time.Millisecond,
			DelayCeiling: 5 * time.Second,
			MaxAttempts:  3,
		},
		LogRetention: 100,
	}
	require.NoError(t, manager.SaveProfile(profile))

	manager.InvalidateCache()
	loaded, err := manager.LoadProfile("staging")
	require.NoError(t, err)
	assert.Equal(t, profile.ChannelURL, loaded.ChannelURL)
	assert.Equal(t, profile.Retry, loaded.Retry)
	assert.Equal(t, 100, loaded.LogRetention)
}

func TestLoadProfileAppliesDefaultsForMissingFields(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.SaveProfile(&interfaces.Profile{
		Name:       "sparse",
		ChannelURL: "ws://localhost:8888/ws",
		RulesURL:   "http://localhost:8888",
		Retry:      DefaultRetryConfig(),
	}))

	loaded, err := manager.LoadProfile("sparse")
	require.NoError(t, err)
	assert.Equal(t, DefaultLogRetention, loaded.LogRetention)
	assert.Equal(t, "github", loaded.Theme)
}

func TestLoadProfileUnknownName(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.LoadProfile("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateProfileRejectsBadURLs(t *testing.T) {
	manager := newTestManager(t)
	valid := &interfaces.Profile{
		Name:       "p",
		ChannelURL: "ws://localhost:8888/ws",
		RulesURL:   "http://localhost:8888",
		Retry:      DefaultRetryConfig(),
	}
	require.NoError(t, manager.ValidateProfile(valid))

	cases := []struct {
		name   string
		mutate func(p *interfaces.Profile)
	}{
		{"empty channel url", func(p *interfaces.Profile) { p.ChannelURL = "" }},
		{"http channel scheme", func(p *interfaces.Profile) { p.ChannelURL = "http://localhost:8888/ws" }},
		{"empty rules url", func(p *interfaces.Profile) { p.RulesURL = "" }},
		{"ws rules scheme", func(p *interfaces.Profile) { p.RulesURL = "ws://localhost:8888" }},
		{"empty name", func(p *interfaces.Profile) { p.Name = "" }},
		{"zero base delay", func(p *interfaces.Profile) { p.Retry.BaseDelay = 0 }},
		{"ceiling below base", func(p *interfaces.Profile) { p.Retry.DelayCeiling = time.Millisecond }},
		{"zero max attempts", func(p *interfaces.Profile) { p.Retry.MaxAttempts = 0 }},
		{"negative retention", func(p *interfaces.Profile) { p.LogRetention = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := *valid
			tc.mutate(&p)
			assert.Error(t, manager.ValidateProfile(&p))
		})
	}
}

func TestListProfiles(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.LoadProfile("default")
	require.NoError(t, err)

	names, err := manager.ListProfiles()
	require.NoError(t, err)
	assert.Contains(t, names, "default")
}

func TestLoadTheme(t *testing.T) {
	manager := newTestManager(t)

	theme, err := manager.LoadTheme("github")
	require.NoError(t, err)
	assert.Equal(t, "github", theme.Name)
	assert.NotEmpty(t, theme.Success)

	_, err = manager.LoadTheme("neon")
	require.Error(t, err)
}

func TestDeleteProfile(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.SaveProfile(&interfaces.Profile{
		Name:       "scratch",
		ChannelURL: "ws://localhost:8888/ws",
		RulesURL:   "http://localhost:8888",
		Retry:      DefaultRetryConfig(),
	}))
	require.NoError(t, manager.DeleteProfile("scratch"))

	_, err := manager.LoadProfile("scratch")
	require.Error(t, err)

	assert.Error(t, manager.DeleteProfile("default"), "default profile is protected")
}
