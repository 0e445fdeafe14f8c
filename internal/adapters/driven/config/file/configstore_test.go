package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

func TestDataDir(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		t.Setenv(DataDirEnv, "/from/env")
		assert.Equal(t, "/explicit", DataDir("/explicit"))
	})

	t.Run("environment before default", func(t *testing.T) {
		t.Setenv(DataDirEnv, "/from/env")
		assert.Equal(t, "/from/env", DataDir(""))
	})

	t.Run("xdg data home by default", func(t *testing.T) {
		t.Setenv(DataDirEnv, "")
		assert.Equal(t, filepath.Join(xdg.DataHome, "usermgr"), DataDir(""))
	})
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_RequiresDir(t *testing.T) {
	_, err := NewConfigStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigStore_LoadMissingFileReturnsDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	_, err = cfg.ContactType("c_community_health_unit")
	assert.NoError(t, err)
}

func TestConfigStore_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Upload.BatchSize = 4
	cfg.Domains = append(cfg.Domains, domain.AuthenticationInfo{Friendly: "Prod", Domain: "chis.example.org"})
	require.NoError(t, store.Save(cfg))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.BatchSize())
	assert.Equal(t, "Prod", loaded.Domain("chis.example.org").Friendly)

	chu, err := loaded.ContactType("c_community_health_unit")
	require.NoError(t, err)
	assert.True(t, chu.DeactivateUsersOnReplace)
	require.Len(t, chu.HierarchyDesc(), 2)
	assert.Equal(t, "county", chu.HierarchyDesc()[0].PropertyName)
	assert.Equal(t, []string{"community_health_assistant"}, chu.UserRole)
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[upload]
batch_size = 2

[[domains]]
friendly = "Test"
domain = "test.example.org"

[[contact_types]]
name = "d_village"
friendly = "Village"
contact_type = "e_village_head"
user_role = ["village_head"]
username_from_place = true

[[contact_types.hierarchy]]
property_name = "chu"
friendly_name = "CHU"
contact_type = "c_community_health_unit"
required = true
level = 1

[[contact_types.place_properties]]
csv_name = "name"
doc_name = "name"
type = "name"
required = true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0600))
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	cfg, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.BatchSize())
	village, err := cfg.ContactType("d_village")
	require.NoError(t, err)
	assert.True(t, village.UsernameFromPlace)
	parent, ok := village.ParentLevel()
	require.True(t, ok)
	assert.Equal(t, "c_community_health_unit", parent.ContactType)
	require.Len(t, village.PlaceProperties, 1)
	assert.True(t, village.PlaceProperties[0].Required)
}

func TestConfigStore_LoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "[upload\nbatch_size = "},
		{"unnamed type", "[[contact_types]]\nfriendly = \"X\"\n"},
		{"duplicate type", "[[contact_types]]\nname = \"a\"\n[[contact_types]]\nname = \"a\"\n"},
		{"missing direct parent", "[[contact_types]]\nname = \"a\"\n[[contact_types.hierarchy]]\nlevel = 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(tt.content), 0600))
			store, err := NewConfigStore(tmpDir)
			require.NoError(t, err)

			_, err = store.Load()
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
