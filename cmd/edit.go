package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/editor"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/tui"
)

var (
	editDraftName string
	editStep      string
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the draft's document step by step in the terminal",
	Long: `Opens the step editor on the draft's current document (the template when
nothing has been generated yet). ctrl+s saves back to the draft.`,
	Example: `  rams edit -d boiler-swap
  rams edit -d boiler-swap --step risk_assessment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(editDraftName)
		if err != nil {
			return err
		}
		session := editor.NewSession(d.CurrentDocument(rams.NewTemplateStore(nil)))
		if editStep != "" {
			if err := session.Goto(editor.StepID(editStep)); err != nil {
				return err
			}
		}
		source := d.Source
		if source == "" {
			source = rams.SourceTemplate
		}
		save := func(doc rams.Document) error {
			d.SetDocument(doc, source)
			return d.Save()
		}
		if err := tui.Run(session, save); err != nil {
			return fmt.Errorf("editor: %w", err)
		}
		if session.Dirty() {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: exited with unsaved changes")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editDraftName, "draft", "d", "", "draft name")
	editCmd.Flags().StringVar(&editStep, "step", "", "step to open first (e.g. project, risk_assessment)")
}
