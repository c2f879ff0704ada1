package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
)

var (
	consolidationSuffix = regexp.MustCompile(`[_ ]\d+$`)
	relatedSuffix       = regexp.MustCompile(`(?i)\s+related$`)
)

// consolidationKey normalizes a folder name for sibling grouping: trailing
// numeric suffixes and "Related" stripped, whitespace and case folded.
func consolidationKey(name string) string {
	s := consolidationSuffix.ReplaceAllString(name, "")
	s = relatedSuffix.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// BuildConsolidation proposes merging sibling folders under one category
// that normalize to the same base name: files from smaller siblings move
// into the largest one. Non-empty folders are never proposed for deletion;
// the executor removes sources only once they are empty.
func (p *Planner) BuildConsolidation(category domain.Category, execute, exclusionsConfigured bool) (*domain.MovePlan, error) {
	if execute && !exclusionsConfigured {
		return nil, contract.Preconditionf(
			"configure exclusions (or explicitly confirm an empty registry) before executing",
			"exclusions not configured for this session")
	}
	categoryRoot := filepath.Join(p.VaultPath, category.Folder())
	entries, err := os.ReadDir(categoryRoot)
	if err != nil {
		return nil, contract.Preconditionf("check the vault layout", "reading %s: %v", categoryRoot, err)
	}

	type folderInfo struct {
		name  string
		notes []string // note file paths
	}
	groups := make(map[string][]folderInfo)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(categoryRoot, e.Name())
		if p.Reader.Excluder != nil && p.Reader.Excluder.Contains(dir) {
			continue
		}
		var notes []string
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if !f.IsDir() {
				notes = append(notes, filepath.Join(dir, f.Name()))
			}
		}
		key := consolidationKey(e.Name())
		groups[key] = append(groups[key], folderInfo{name: e.Name(), notes: notes})
	}

	plan := &domain.MovePlan{
		ID:        uuid.NewString(),
		Scope:     domain.ScopePath,
		ScopePath: categoryRoot,
		CreatedAt: time.Now(),
		Execute:   execute,
	}

	var keys []string
	for k, siblings := range groups {
		if len(siblings) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	merged := 0
	for _, k := range keys {
		siblings := groups[k]
		// Largest sibling wins; ties resolve to the shorter (unsuffixed) name.
		sort.Slice(siblings, func(i, j int) bool {
			if len(siblings[i].notes) != len(siblings[j].notes) {
				return len(siblings[i].notes) > len(siblings[j].notes)
			}
			return len(siblings[i].name) < len(siblings[j].name)
		})
		target := siblings[0]
		for _, src := range siblings[1:] {
			for _, notePath := range src.notes {
				plan.Moves = append(plan.Moves, domain.PlannedMove{
					NoteID:     domain.NoteID(notePath),
					FromPath:   notePath,
					ToPath:     filepath.Join(categoryRoot, target.name, filepath.Base(notePath)),
					Category:   category,
					FolderName: target.name,
					Confidence: 1,
					Method:     domain.MethodRuleOnly,
					Reasoning:  fmt.Sprintf("consolidating %q into %q", src.name, target.name),
				})
			}
			merged++
		}
	}

	plan.Summary = p.summarize(plan, len(plan.Moves), execute)
	if merged > 0 {
		plan.Summary.Patterns = append(plan.Summary.Patterns,
			fmt.Sprintf("%d sibling folders merge into their largest counterpart", merged))
	}
	return plan, nil
}
