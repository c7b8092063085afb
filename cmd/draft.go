package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var (
	dmDraft    string
	dmClear    bool
	dmProvider string
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage per-draft settings",
}

var draftSetModelCmd = &cobra.Command{
	Use:   "set-model <model>",
	Short: "Set or clear a draft's model and provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(dmDraft)
		if err != nil {
			return err
		}
		if d.Config == nil {
			d.Config = &draft.Config{}
		}
		if dmClear {
			d.Config.Model, d.Config.Provider = "", ""
		} else {
			if len(args) == 0 || args[0] == "" {
				return fmt.Errorf("model is required unless --clear is set")
			}
			d.Config.Model = args[0]
			if dmProvider != "" {
				p := strings.ToLower(dmProvider)
				if !validProvider(p) {
					return fmt.Errorf("invalid --provider %q (use %s)", dmProvider, strings.Join(ai.Providers(), ", "))
				}
				d.Config.Provider = p
			}
		}
		if err := d.Save(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if dmClear {
			fmt.Fprintf(out, "✓ Cleared draft model for %s\n", d.Name)
		} else {
			fmt.Fprintf(out, "✓ Set draft model for %s: %s\n", d.Name, d.Config.Model)
		}
		return nil
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a draft's answers and settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(dmDraft)
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(struct {
			Name        string `json:"name"`
			Answers     any    `json:"answers"`
			Config      any    `json:"config"`
			Attachments int    `json:"attachments"`
			Source      string `json:"source,omitempty"`
		}{d.Name, d.Answers, d.Config, len(d.Attachments), string(d.Source)})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func validProvider(p string) bool {
	for _, known := range ai.Providers() {
		if p == known {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftSetModelCmd)
	draftCmd.AddCommand(draftShowCmd)

	draftCmd.PersistentFlags().StringVarP(&dmDraft, "draft", "d", "", "draft name")
	draftSetModelCmd.Flags().BoolVar(&dmClear, "clear", false, "clear the draft's model override")
	draftSetModelCmd.Flags().StringVar(&dmProvider, "provider", "", "provider for this draft (openrouter|openai|gemini|ollama)")
}
