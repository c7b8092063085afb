package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var templateSchema bool

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the base RAMS template as JSON",
	Long: `Prints the template every generation starts from and falls back to. With
--schema, prints the field list the model is asked to fill instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if templateSchema {
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tTYPE\tOPTIONAL\tNOTE")
			for _, f := range rams.Schema {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.Path, f.Type, f.Optional, f.Note)
			}
			return tw.Flush()
		}
		b, err := utils.PrettyJSON(rams.NewTemplateStore(nil).Base())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.Flags().BoolVar(&templateSchema, "schema", false, "print the document schema instead of the template")
}
