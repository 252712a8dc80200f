package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce merges the bursts of events editors produce on save.
const watchDebounce = 150 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [flags] file.py...",
	Short: "Recompile whenever an input changes",
	Long: `watch runs the same stage as the plain command (build, -c, --show-ir, ...)
once, then again every time one of the inputs is written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	inv, err := newInvocation(cmd, args)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	// следим за каталогами: редакторы часто пишут файл через rename
	watched := make(map[string]bool, len(args))
	dirs := make(map[string]bool)
	for _, in := range args {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	rebuild := func() {
		start := time.Now()
		code := inv.run(ctx)
		fmt.Fprintf(stderr, "[%s] %s in %s, watching %d file(s)\n",
			time.Now().Format("15:04:05"), code, time.Since(start).Round(time.Millisecond), len(watched))
	}
	rebuild()

	timer := time.NewTimer(0)
	<-timer.C
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watch: %v\n", err)
		case <-timer.C:
			rebuild()
		}
	}
}
