package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addDraftName string
	addDesc      string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Attach a reference file (site notes, drawings schedule, client requirements) to a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(addDraftName)
		if err != nil {
			return err
		}
		a, err := d.AddAttachment(args[0], addDesc)
		if err != nil {
			return err
		}
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Attachment added: %s (≈%d tokens)\n", a.Name, a.Tokens)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addDraftName, "draft", "d", "", "draft name")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "attachment description")
}
