package cmd

import (
	"errors"
	"path/filepath"

	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

func defaultDraftsDir() (string, error) {
	dir := "~/.rams/drafts"
	if cfg != nil && cfg.DraftsDir != "" {
		dir = cfg.DraftsDir
	}
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// historyPath returns the configured history database path, or "" when
// history is disabled.
func historyPath() (string, error) {
	if cfg == nil || cfg.HistoryDB == "" {
		return "", nil
	}
	return utils.ExpandHome(cfg.HistoryDB)
}

func resolveDraftDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("--draft is required")
	}
	root, err := defaultDraftsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// loadDraft loads a draft by name, or the draft enclosing the working
// directory when name is empty.
func loadDraft(name string) (*draft.Draft, error) {
	if name == "" {
		if dir, err := utils.FindDraftRoot(""); err == nil {
			return draft.Load(dir)
		}
	}
	dir, err := resolveDraftDirByName(name)
	if err != nil {
		return nil, err
	}
	return draft.Load(dir)
}
