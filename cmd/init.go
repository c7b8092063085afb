package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var initAnswersFile string

var initCmd = &cobra.Command{
	Use:   "init <draft-name>",
	Short: "Initialize a new RAMS draft",
	Example: `  rams init boiler-swap
  rams init boiler-swap --answers answers.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir, err := resolveDraftDirByName(name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing draft.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(dir, "draft.json")); err == nil {
				return fmt.Errorf("draft already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect draft directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize draft", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat draft directory: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		d := draft.New(name, dir)
		if cfg != nil && cfg.Locale != "" {
			d.Answers.Locale = cfg.Locale
		}
		if initAnswersFile != "" {
			a, err := draft.LoadAnswers(initAnswersFile)
			if err != nil {
				return err
			}
			d.ApplyAnswers(a)
		}
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Draft initialized: %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initAnswersFile, "answers", "", "answers file (.yaml, .toml or .json)")
}
