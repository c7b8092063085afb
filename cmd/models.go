package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/rams-cli/internal/config"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect or extend the model catalog used for cost estimates",
	Example: `  rams models show
  rams models show --json
  rams models sync --file ./models.json
  rams models fetch --url https://example.com/models.json`,
}

var modelsShowJSON bool

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		out := cmd.OutOrStdout()
		if modelsShowJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cat)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tMODEL\tCONTEXT\tIN/1K\tOUT/1K\tJSON")
		for _, m := range cat {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.5f\t%.5f\t%t\n", m.Provider, m.Name, m.ContextTokens, m.InputPerK, m.OutputPerK, m.JSONMode)
		}
		return tw.Flush()
	},
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model catalog/pricing from a JSON file into ~/.rams/models.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFile(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		path, err := saveUserCatalog(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %d models into %s\n", len(m), path)
		return nil
	},
}

var fetchURL string

var modelsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch model catalog/pricing JSON from a URL and merge it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchURL == "" {
			return fmt.Errorf("--url is required")
		}
		client := &http.Client{Timeout: 20 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, fetchURL, nil)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, string(b))
		}
		m, err := ai.DecodeCatalog(resp.Body)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", fetchURL, err)
		}
		path, err := saveUserCatalog(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %d fetched models into %s\n", len(m), path)
		return nil
	},
}

func userCatalogPath() (string, error) {
	dir, err := cfgpkg.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "models.json"), nil
}

// loadUserCatalog merges ~/.rams/models.json into the built-in catalog.
func loadUserCatalog() error {
	path, err := userCatalogPath()
	if err != nil {
		return err
	}
	m, err := ai.LoadCatalogFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	ai.MergeCatalog(m)
	return nil
}

// saveUserCatalog merges m over the saved user catalog and persists it.
func saveUserCatalog(m map[string]ai.ModelInfo) (string, error) {
	path, err := userCatalogPath()
	if err != nil {
		return "", err
	}
	existing, err := ai.LoadCatalogFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("load %s: %w", path, err)
		}
		existing = map[string]ai.ModelInfo{}
	}
	for k, v := range m {
		v.Name = ""
		existing[k] = v
	}
	b, err := utils.PrettyJSON(existing)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return "", err
	}
	ai.MergeCatalog(m)
	return path, nil
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsFetchCmd)

	modelsShowCmd.Flags().BoolVar(&modelsShowJSON, "json", false, "print the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsFetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL to JSON catalog file")
}
