package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var file, out string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild on every source change under the project directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, file, out, verbose)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "main.zog", "root source file")
	cmd.Flags().StringVarP(&out, "out", "o", "build", "output directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit debug-level compile logs")
	return cmd
}

func runWatch(cmd *cobra.Command, file, out string, verbose bool) error {
	root := filepath.Dir(file)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := addWatchTree(watcher, root); err != nil {
		return err
	}

	rebuild := func() {
		if err := runBuild(cmd, file, out, verbose); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
	rebuild()

	var lastEvent time.Time
	const debounce = 150 * time.Millisecond
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastEvent) < debounce {
				continue
			}
			lastEvent = time.Now()
			rebuild()
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), watchErr)
		}
	}
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
