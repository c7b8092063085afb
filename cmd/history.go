package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/history"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var (
	historyDraftName string
	historyLimit     int
	historyJSON      bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded generations, newest first",
	Example: `  rams history
  rams history -d boiler-swap --limit 5 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := historyPath()
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("history_db is not configured")
		}
		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), historyDraftName, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if historyJSON {
			if entries == nil {
				entries = []history.Entry{}
			}
			b, err := utils.PrettyJSON(entries)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "(no generations)")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tDRAFT\tPROVIDER\tMODEL\tSOURCE\tTOKENS\tTIME\tREASON")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Draft, e.Provider, e.Model, e.Source,
				e.PromptTokens, e.CompletionTokens, e.Duration.Round(time.Millisecond), truncate(e.Reason, 60))
		}
		return tw.Flush()
	},
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historyDraftName, "draft", "d", "", "only show this draft")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print entries as JSON")
}
