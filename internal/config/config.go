// Package config loads the single JSON configuration document recognized by
// the organizer core.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jagoff/obsidian-para/internal/contract"
)

// AppDirName is the hidden directory under the vault that holds the index,
// snapshots, and learning database.
const AppDirName = ".para"

// Config is the recognized option set. Zero values are filled by defaults
// at load time.
type Config struct {
	VaultPath       string   `json:"vault_path"`
	IndexPath       string   `json:"index_path"`
	SnapshotPath    string   `json:"snapshot_path"`
	EmbeddingModel  string   `json:"embedding_model"`
	LLMModel        string   `json:"llm_model"`
	AutoBackup      *bool    `json:"auto_backup"`
	Exclusions      []string `json:"exclusions"`
	MaxNotesPerRun  int      `json:"max_notes_per_run"`
	NeighborK       int      `json:"neighbor_k"`
	RecentHistoryN  int      `json:"recent_history_n"`
	NoteExtensions  []string `json:"note_extensions"`
	MaxPromptWords  int      `json:"max_prompt_words"`
}

// Default returns a config with every option at its documented default.
func Default() Config {
	yes := true
	return Config{
		EmbeddingModel: "nomic-embed-text",
		LLMModel:       "llama3.2",
		AutoBackup:     &yes,
		MaxNotesPerRun: 0, // unlimited
		NeighborK:      5,
		RecentHistoryN: 1000,
		NoteExtensions: []string{".md"},
		MaxPromptWords: 4000,
	}
}

// Load reads the config document at path. A missing file yields defaults;
// a malformed file is a precondition failure.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, contract.Preconditionf("check config file permissions", "reading config %s: %v", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, contract.Preconditionf("fix the JSON syntax in "+path, "parsing config %s: %v", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.NeighborK < 0 {
		return contract.Preconditionf("neighbor_k must be >= 0", "invalid neighbor_k: %d", c.NeighborK)
	}
	if c.RecentHistoryN < 0 {
		return contract.Preconditionf("recent_history_n must be >= 0", "invalid recent_history_n: %d", c.RecentHistoryN)
	}
	if c.MaxNotesPerRun < 0 {
		return contract.Preconditionf("max_notes_per_run must be >= 0", "invalid max_notes_per_run: %d", c.MaxNotesPerRun)
	}
	if c.VaultPath != "" {
		if !filepath.IsAbs(c.VaultPath) {
			return contract.Preconditionf("use an absolute vault_path", "vault_path is not absolute: %s", c.VaultPath)
		}
	}
	return nil
}

// applyDefaults fills derived paths and zero-valued options.
func (c *Config) applyDefaults() {
	d := Default()
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = d.EmbeddingModel
	}
	if c.LLMModel == "" {
		c.LLMModel = d.LLMModel
	}
	if c.AutoBackup == nil {
		c.AutoBackup = d.AutoBackup
	}
	if c.NeighborK == 0 {
		c.NeighborK = d.NeighborK
	}
	if c.RecentHistoryN == 0 {
		c.RecentHistoryN = d.RecentHistoryN
	}
	if len(c.NoteExtensions) == 0 {
		c.NoteExtensions = d.NoteExtensions
	}
	if c.MaxPromptWords == 0 {
		c.MaxPromptWords = d.MaxPromptWords
	}
	if c.VaultPath != "" {
		if c.IndexPath == "" {
			c.IndexPath = filepath.Join(c.VaultPath, AppDirName, "index")
		}
		if c.SnapshotPath == "" {
			c.SnapshotPath = filepath.Join(c.VaultPath, AppDirName, "snapshots")
		}
	}
}

// ResolveVault fills VaultPath by autodiscovery when it is unset, then
// re-derives dependent paths. Discovery probes the given roots for a
// directory holding the five PARA folders.
func (c *Config) ResolveVault(searchRoots []string) error {
	if c.VaultPath != "" {
		if err := VerifyVaultLayout(c.VaultPath); err != nil {
			return err
		}
		c.applyDefaults()
		return nil
	}

	candidates := DiscoverVaults(searchRoots)
	switch len(candidates) {
	case 0:
		return contract.Preconditionf(
			"set vault_path in the config file",
			"no vault found under %v", searchRoots)
	case 1:
		c.VaultPath = candidates[0]
		c.applyDefaults()
		return nil
	default:
		return contract.Preconditionf(
			"set vault_path to one of the candidates",
			"multiple vaults found: %v", candidates)
	}
}

// paraFolders are the required top-level folders of a vault.
var paraFolders = []string{"00-Inbox", "01-Projects", "02-Areas", "03-Resources", "04-Archive"}

// VerifyVaultLayout checks that root contains the five PARA folders.
func VerifyVaultLayout(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return contract.Preconditionf("create the vault directory first", "vault root missing: %s", root)
	}
	for _, f := range paraFolders {
		if fi, err := os.Stat(filepath.Join(root, f)); err != nil || !fi.IsDir() {
			return contract.Preconditionf(
				fmt.Sprintf("create %s under the vault root", f),
				"vault %s is missing required folder %s", root, f)
		}
	}
	return nil
}

// DiscoverVaults returns directories under the search roots (one level deep)
// that contain the five PARA folders.
func DiscoverVaults(searchRoots []string) []string {
	var found []string
	for _, root := range searchRoots {
		if VerifyVaultLayout(root) == nil {
			found = append(found, root)
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			candidate := filepath.Join(root, e.Name())
			if VerifyVaultLayout(candidate) == nil {
				found = append(found, candidate)
			}
		}
	}
	return found
}
