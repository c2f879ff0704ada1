package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/contract"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "para.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func makeVault(t *testing.T, root string) string {
	t.Helper()
	for _, f := range paraFolders {
		require.NoError(t, os.MkdirAll(filepath.Join(root, f), 0o755))
	}
	return root
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NeighborK)
	assert.Equal(t, 1000, cfg.RecentHistoryN)
	assert.Equal(t, []string{".md"}, cfg.NoteExtensions)
	assert.NotNil(t, cfg.AutoBackup)
	assert.True(t, *cfg.AutoBackup)
}

func TestLoadAppliesOverridesAndDerivedPaths(t *testing.T) {
	vault := makeVault(t, t.TempDir())
	path := writeConfig(t, `{
		"vault_path": "`+vault+`",
		"neighbor_k": 7,
		"auto_backup": false
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.NeighborK)
	assert.False(t, *cfg.AutoBackup)
	assert.Equal(t, filepath.Join(vault, AppDirName, "index"), cfg.IndexPath)
	assert.Equal(t, filepath.Join(vault, AppDirName, "snapshots"), cfg.SnapshotPath)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindPrecondition))
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, body := range []string{
		`{"neighbor_k": -1}`,
		`{"recent_history_n": -5}`,
		`{"vault_path": "relative/path"}`,
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}
}

func TestVerifyVaultLayout(t *testing.T) {
	vault := makeVault(t, t.TempDir())
	assert.NoError(t, VerifyVaultLayout(vault))

	incomplete := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(incomplete, "00-Inbox"), 0o755))
	assert.Error(t, VerifyVaultLayout(incomplete))
}

func TestResolveVaultAutodiscovery(t *testing.T) {
	parent := t.TempDir()
	vault := makeVault(t, filepath.Join(parent, "MyVault"))

	cfg := Default()
	require.NoError(t, cfg.ResolveVault([]string{parent}))
	assert.Equal(t, vault, cfg.VaultPath)
	assert.NotEmpty(t, cfg.IndexPath)

	// Ambiguity is a precondition failure listing candidates.
	makeVault(t, filepath.Join(parent, "OtherVault"))
	cfg = Default()
	err := cfg.ResolveVault([]string{parent})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindPrecondition))

	// Nothing found at all.
	cfg = Default()
	err = cfg.ResolveVault([]string{t.TempDir()})
	assert.True(t, contract.IsKind(err, contract.KindPrecondition))
}
