package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const scaffoldMain = `namespace example

fn main {
	say Hello from Zoglin!
}
`

func newInitCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new Zoglin project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			mainPath := filepath.Join(dir, "main.zog")
			if _, err := os.Stat(mainPath); err == nil {
				return fmt.Errorf("%s already exists", mainPath)
			}
			if err := os.WriteFile(mainPath, []byte(scaffoldMain), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", mainPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "project directory")
	return cmd
}
