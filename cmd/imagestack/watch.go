package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newWatchCmd creates the "watch" subcommand for re-synthesizing on key changes.
func newWatchCmd(opts *rootOptions) *cobra.Command {
	var wopts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when the keys file or config changes",
		Long: `Watch monitors the keys file (and --config, if set) and re-synthesizes on change.

The watch command:
- Synthesizes once at startup
- Watches the directories holding the keys file and config
- Debounces rapid changes to avoid excessive rebuilds
- Leaves the last good output in place when synthesis fails

Examples:
    imagestack watch --keys-file keys.txt -o template.json
    imagestack watch --keys-file keys.txt --config stack.yaml -f yaml
    imagestack watch --keys-file keys.txt --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), opts, wopts)
		},
	}

	cmd.Flags().StringVar(&wopts.keysFile, "keys-file", "", "File with one API key per line")
	cmd.Flags().DurationVar(&wopts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&wopts.outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&wopts.outputFile, "output", "o", "", "Output file (default: stdout)")
	_ = cmd.MarkFlagRequired("keys-file")

	return cmd
}

type watchOptions struct {
	keysFile     string
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// watchedFiles returns the absolute paths whose changes trigger a rebuild.
func watchedFiles(opts *rootOptions, wopts watchOptions) ([]string, error) {
	files := []string{wopts.keysFile}
	if opts.configFile != "" {
		files = append(files, opts.configFile)
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// runWatch synthesizes on every change to the watched files until ctx is done.
func runWatch(ctx context.Context, w io.Writer, opts *rootOptions, wopts watchOptions) error {
	log := zap.L()

	files, err := watchedFiles(opts, wopts)
	if err != nil {
		return fmt.Errorf("failed to resolve watched files: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors often replace files on save, so watch the parent directories.
	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		watched[f] = true
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
		log.Info("watching", zap.String("dir", dir))
	}

	src := sourceFlags{keysFile: wopts.keysFile}
	rebuild := func() {
		result, err := synthesize(ctx, opts, &src)
		if err != nil && result == nil {
			log.Error("synth failed", zap.Error(err))
			return
		}
		if err := outputResult(w, result, wopts.outputFormat, wopts.outputFile); err != nil {
			log.Error("synth failed", zap.Error(err))
			return
		}
		log.Info("synthesized", zap.Int("resources", len(result.Template.Resources)))
	}

	rebuild()

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	log.Info("watching for changes (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wopts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			log.Info("change detected, rebuilding")
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			log.Info("stopping watch")
			return nil
		}
	}
}
