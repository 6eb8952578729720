package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/session"
)

func newBuildCmd() *cobra.Command {
	var file, out string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile a Zoglin root file into a datapack directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, file, out, verbose)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "main.zog", "root source file")
	cmd.Flags().StringVarP(&out, "out", "o", "build", "output directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit debug-level compile logs")
	return cmd
}

func runBuild(cmd *cobra.Command, file, out string, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	root := filepath.Dir(file)
	fl := newFsLoader(root)
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = filepath.Base(file)
	}

	sess := session.New(session.WithLogger(logger), session.WithFileLoader(fl))
	dp, errs := sess.Build(rel)
	reportDiagnostics(cmd, errs)
	if dp == nil {
		return fmt.Errorf("build failed")
	}
	if err := writeDatapack(dp, out); err != nil {
		return err
	}
	digest, _ := dp.Digest()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s (digest %x)\n", len(dp.Entries()), out, digest[:8])
	return nil
}

func reportDiagnostics(cmd *cobra.Command, bag *diagnostics.Bag) {
	if bag == nil {
		return
	}
	for _, d := range bag.All() {
		stream := cmd.OutOrStdout()
		if d.Severity() == diagnostics.SeverityError {
			stream = cmd.ErrOrStderr()
		}
		fmt.Fprintln(stream, d.Error())
	}
	if bag.HasErrors() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d error(s)\n", countErrors(bag))
	}
}

func countErrors(bag *diagnostics.Bag) int {
	n := 0
	for _, d := range bag.All() {
		if d.Severity() == diagnostics.SeverityError {
			n++
		}
	}
	return n
}
