package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var (
	listDrafts      bool
	listAttachments bool
	listDraftName   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts or a draft's attachments",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if listDrafts == listAttachments { // either both true or both false
			return fmt.Errorf("specify exactly one of --drafts or --attachments")
		}
		if listDrafts {
			return listAllDrafts(out)
		}
		if listDraftName == "" {
			return fmt.Errorf("--draft is required when using --attachments")
		}
		d, err := loadDraft(listDraftName)
		if err != nil {
			return err
		}
		if len(d.Attachments) == 0 {
			fmt.Fprintln(out, "(no attachments)")
			return nil
		}
		ids := make([]string, 0, len(d.Attachments))
		for id := range d.Attachments {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			a := d.Attachments[id]
			fmt.Fprintf(out, "- %s: %s (%s)\n", a.ID, a.Name, a.Description)
		}
		return nil
	},
}

func listAllDrafts(out io.Writer) error {
	root, err := defaultDraftsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), "draft.json")); err == nil {
			fmt.Fprintf(out, "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(out, "(no drafts)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listDrafts, "drafts", false, "list drafts")
	listCmd.Flags().BoolVar(&listAttachments, "attachments", false, "list attachments of a draft")
	listCmd.Flags().StringVarP(&listDraftName, "draft", "d", "", "draft name for --attachments")
}
