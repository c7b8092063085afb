package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/render"
)

var (
	previewDraftName string
	previewRaw       bool
	previewWidth     int
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the draft's document as formatted markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(previewDraftName)
		if err != nil {
			return err
		}
		md := render.Markdown(d.CurrentDocument(rams.NewTemplateStore(nil)))
		out := cmd.OutOrStdout()
		if previewRaw {
			fmt.Fprint(out, md)
			return nil
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(previewWidth))
		if err != nil {
			return fmt.Errorf("preview renderer: %w", err)
		}
		styled, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		fmt.Fprint(out, styled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringVarP(&previewDraftName, "draft", "d", "", "draft name")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "print plain markdown without terminal styling")
	previewCmd.Flags().IntVar(&previewWidth, "width", 100, "word wrap width")
}
