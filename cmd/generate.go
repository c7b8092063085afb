package cmd

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/rams-cli/internal/ai"
	"github.com/KaramelBytes/rams-cli/internal/history"
	"github.com/KaramelBytes/rams-cli/internal/logging"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var (
	genDraftName   string
	genModel       string
	genProvider    string
	genMaxTokens   int
	genTemp        float64
	genSeed        int
	genLocale      string
	genStrict      bool
	genPolicy      string
	genDryRun      bool
	genQuiet       bool
	genJSON        bool
	genPrintPrompt bool
	genBudgetLimit float64
	genOllamaHost  string
	genTimeoutSec  int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the draft's RAMS document with a language model",
	Long: `Builds a prompt from the draft's answers and attachments, asks the model for a
complete RAMS document as JSON and repairs the reply onto the template. Any
model failure falls back to the template document so the draft always holds
something renderable.`,
	Example: `  rams generate -d boiler-swap --dry-run
  rams generate -d boiler-swap --provider gemini --locale en-US
  rams generate -d boiler-swap --strict --seed 7 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultUnchanged(cmd.Flags())
		if genJSON {
			genQuiet = true
		}

		d, err := loadDraft(genDraftName)
		if err != nil {
			return err
		}
		answers := d.PromptAnswers()

		locale := genLocale
		if locale == "" {
			locale = answers.Locale
		}
		if locale == "" && cfg != nil {
			locale = cfg.Locale
		}
		strict := genStrict || (cfg != nil && cfg.Strict)
		policyName := genPolicy
		if policyName == "" && cfg != nil {
			policyName = cfg.ListPolicy
		}
		policy, err := rams.ParseListPolicy(policyName)
		if err != nil {
			return err
		}

		temp := genTemp
		if temp < 0 && cfg != nil {
			temp = cfg.Temperature
		}
		if temp < 0 {
			temp = rams.DefaultTemperature
		}
		var seed *int
		switch {
		case genSeed != 0:
			seed = &genSeed
		case cfg != nil && cfg.Seed != 0:
			s := cfg.Seed
			seed = &s
		}
		maxTokens := genMaxTokens
		if maxTokens == 0 && cfg != nil {
			maxTokens = cfg.MaxTokens
		}
		if maxTokens == 0 {
			maxTokens = 4096
		}

		providerName := resolveProvider(genProvider, d, cfg)
		model := selectModel(d, cfg, genModel, providerName)

		templates := rams.NewTemplateStore(nil)
		prompt := rams.BuildPrompt(answers, templates.Base(), rams.PromptOptions{Locale: locale, Strict: strict})
		text := prompt.Text()
		tokens := utils.CountTokens(text)

		if !genQuiet {
			var refs strings.Builder
			for _, r := range answers.References {
				refs.WriteString(r.Text)
			}
			parts := utils.TokenBreakdown(map[string]string{
				"instructions": prompt.System,
				"answers":      prompt.User,
				"references":   refs.String(),
			})
			fmt.Printf("Tokens: total≈%d (instructions≈%d, answers≈%d, references≈%d)\n",
				tokens, parts["instructions"], parts["answers"], parts["references"])
		}

		var estCost float64
		if mi, ok := ai.LookupModel(model); ok {
			if mi.ContextTokens > 0 && tokens+maxTokens > mi.ContextTokens && !genQuiet {
				fmt.Printf("⚠ Prompt (%d tokens) + max-tokens (%d) exceeds %s context window (~%d tokens).\n",
					tokens, maxTokens, mi.Name, mi.ContextTokens)
			}
			if !mi.JSONMode && !genQuiet {
				fmt.Printf("⚠ Warning: %s may ignore JSON mode; the reply will be repaired or replaced by the template.\n", mi.Name)
			}
			if cost, ok := ai.EstimateCostUSD(model, tokens, maxTokens); ok {
				estCost = cost
				if !genQuiet {
					fmt.Printf("Estimated max cost: ~$%.4f (in %.4f/out %.4f per 1K tokens)\n", cost, mi.InputPerK, mi.OutputPerK)
				}
			}
		}

		if err := enforceBudget(estCost, genBudgetLimit); err != nil {
			return err
		}

		if genDryRun {
			// Deterministic dry-run request id for observability
			sum := sha1.Sum([]byte(text))
			rid := fmt.Sprintf("sim_%x", sum[:6])
			if genJSON {
				b, err := utils.PrettyJSON(map[string]any{
					"draft":      d.Name,
					"provider":   providerName,
					"model":      model,
					"request_id": rid,
					"tokens":     tokens,
					"prompt":     prompt,
				})
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}
			if !genQuiet {
				fmt.Println("\n--dry-run: no API call will be made. Prompt preview below --")
				fmt.Printf("Request ID (dry-run): %s\n", rid)
			}
			fmt.Println(text)
			return nil
		}

		if genPrintPrompt && !genQuiet {
			fmt.Println("\n--print-prompt: sending the following prompt --")
			fmt.Println(text)
		}

		client, providerName, err := buildRuntime(cfg, runtimeOptions{
			Provider:   providerName,
			OllamaHost: genOllamaHost,
		})
		if err != nil {
			return err
		}

		// Request timeout
		timeoutSec := genTimeoutSec
		if timeoutSec <= 0 {
			timeoutSec = 180
		}
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, time.Duration(timeoutSec)*time.Second)
		defer cancel()

		gen := &rams.Generator{
			Runtime:     client,
			Templates:   templates,
			Model:       model,
			Temperature: temp,
			Seed:        seed,
			Locale:      locale,
			Strict:      strict,
			Policy:      policy,
			MaxTokens:   maxTokens,
			Logger:      logging.L().With(zap.String("draft", d.Name), zap.String("provider", providerName)),
		}
		if !genQuiet {
			fmt.Printf("⚙ Generating with %s model=%s (prompt tokens≈%d) ...\n", providerName, model, tokens)
		}
		out, err := gen.Generate(ctx, answers)
		if err != nil {
			return explainError(err, providerName, model)
		}

		d.SetDocument(out.Document, out.Source)
		if err := d.Save(); err != nil {
			return err
		}
		recordHistory(ctx, d.Name, providerName, out)

		return formatAndWriteOutput(out, outputOptions{
			JSON:     genJSON,
			Quiet:    genQuiet,
			Draft:    d.Name,
			Provider: providerName,
			Writer:   os.Stdout,
		})
	},
}

// recordHistory logs a generation; failures only warn.
func recordHistory(ctx context.Context, draftName, providerName string, out rams.Outcome) {
	path, err := historyPath()
	if err != nil || path == "" {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()
	if _, err := store.Record(ctx, history.FromOutcome(draftName, providerName, out)); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to record history: %v\n", err)
	}
}

func providerList() string {
	p := ai.Providers()
	sort.Strings(p)
	return strings.Join(p, "|")
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&genDraftName, "draft", "d", "", "draft name")
	generateCmd.Flags().StringVar(&genModel, "model", "", "override model (default from draft or config)")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "completion provider ("+providerList()+")")
	generateCmd.Flags().IntVar(&genMaxTokens, "max-tokens", 0, "max tokens for the response (default from config)")
	generateCmd.Flags().Float64Var(&genTemp, "temp", -1, "sampling temperature (default from config)")
	generateCmd.Flags().IntVar(&genSeed, "seed", 0, "sampling seed for providers that support it")
	generateCmd.Flags().StringVar(&genLocale, "locale", "", "document locale, e.g. en-GB or en-US")
	generateCmd.Flags().BoolVar(&genStrict, "strict", false, "forbid the model from inventing names, phone numbers and addresses")
	generateCmd.Flags().StringVar(&genPolicy, "policy", "", "list merge policy: replace|union")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "build the prompt and print token breakdown without calling the API")
	generateCmd.Flags().BoolVar(&genPrintPrompt, "print-prompt", false, "print the prompt being sent to the API")
	generateCmd.Flags().Float64Var(&genBudgetLimit, "budget-limit", 0, "fail if estimated max cost (USD) exceeds this budget")
	generateCmd.Flags().BoolVar(&genQuiet, "quiet", false, "suppress non-essential output")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "emit the outcome as JSON to stdout")
	generateCmd.Flags().StringVar(&genOllamaHost, "ollama-host", "", "override Ollama host (e.g., http://127.0.0.1:11434)")
	generateCmd.Flags().IntVar(&genTimeoutSec, "timeout-sec", 180, "request timeout in seconds (default 180)")
}
