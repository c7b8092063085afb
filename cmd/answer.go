package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/draft"
)

var (
	answerDraftName string
	answerFile      string
)

var answerCmd = &cobra.Command{
	Use:   "answer [<key> <value>]",
	Short: "Set a draft's answers (title, client, scope, activities...)",
	Long: fmt.Sprintf(`Set one answer field, or load several from a file with --file.

Keys: %s. "activity" appends one activity; "activities" replaces the list
with a semicolon separated value.`, strings.Join(draft.AnswerKeys, ", ")),
	Example: `  rams answer -d boiler-swap client "Acme Housing"
  rams answer -d boiler-swap activity "Isolate gas supply"
  rams answer -d boiler-swap --file answers.toml`,
	Args: func(cmd *cobra.Command, args []string) error {
		if answerFile != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(answerDraftName)
		if err != nil {
			return err
		}
		if answerFile != "" {
			a, err := draft.LoadAnswers(answerFile)
			if err != nil {
				return err
			}
			d.ApplyAnswers(a)
		} else if err := d.SetAnswer(args[0], args[1]); err != nil {
			return err
		}
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Answers updated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(answerCmd)
	answerCmd.Flags().StringVarP(&answerDraftName, "draft", "d", "", "draft name")
	answerCmd.Flags().StringVar(&answerFile, "file", "", "answers file (.yaml, .toml or .json)")
}
