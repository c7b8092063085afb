package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/rams-cli/internal/draft"
	"github.com/KaramelBytes/rams-cli/internal/logging"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/render"
	"github.com/KaramelBytes/rams-cli/internal/server"
	"github.com/KaramelBytes/rams-cli/internal/utils"
)

var (
	renderDraftName string
	renderLayout    string
	renderOutput    string
	renderWatch     bool
)

// watchDebounce coalesces the write and rename events of one atomic save.
const watchDebounce = 200 * time.Millisecond

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the draft's document to PDF",
	Example: `  rams render -d boiler-swap
  rams render -d boiler-swap --layout classic --output boiler.pdf
  rams render -d boiler-swap --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDraft(renderDraftName)
		if err != nil {
			return err
		}
		name := renderLayout
		if name == "" && cfg != nil {
			name = cfg.Layout
		}
		layout, err := render.ParseLayout(name)
		if err != nil {
			return err
		}
		output := renderOutput
		if output == "" {
			output = filepath.Join(d.RootDir(), server.Filename(d.Answers.Title))
		}

		out := cmd.OutOrStdout()
		if err := renderDraft(d, layout, output); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Rendered %s (%s layout)\n", output, layout)
		if !renderWatch {
			return nil
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(out, "Watching %s for changes (ctrl+c to stop)\n", d.RootDir())
		return watchDraft(ctx, d.RootDir(), func() {
			fresh, err := draft.Load(d.RootDir())
			if err == nil {
				err = renderDraft(fresh, layout, output)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: re-render failed: %v\n", err)
				return
			}
			fmt.Fprintf(out, "✓ Re-rendered %s at %s\n", output, time.Now().Format("15:04:05"))
		})
	},
}

func renderDraft(d *draft.Draft, layout render.Layout, output string) error {
	b, err := render.RenderBytes(d.CurrentDocument(rams.NewTemplateStore(nil)), layout)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(output)); err != nil {
		return err
	}
	return utils.SafeWriteFile(output, b)
}

// watchDraft calls onChange after each settled change to dir's draft.json
// until ctx is done. The directory is watched because saves replace the file.
func watchDraft(ctx context.Context, dir string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Join(dir, "draft.json")
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.L().Debug("draft changed", zap.String("op", ev.Op.String()))
			timer = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.L().Warn("watch error", zap.Error(err))
		case <-timer:
			timer = nil
			onChange()
		}
	}
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderDraftName, "draft", "d", "", "draft name")
	renderCmd.Flags().StringVar(&renderLayout, "layout", "", "PDF layout: cards|classic (default from config)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output path (default <draft dir>/<title>.pdf)")
	renderCmd.Flags().BoolVar(&renderWatch, "watch", false, "re-render whenever the draft is saved")
}
