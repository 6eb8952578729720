// Command zoglin is the thin filesystem driver around the core compile
// session (§6): it owns every os.* call, feeding the core a FileLoader and
// writing back whatever *datapack.Datapack comes out.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "zoglin",
		Short:   "Compile Zoglin sources into a Minecraft datapack",
		Version: "0.1.0",
	}
	root.AddCommand(newInitCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newWatchCmd())
	return root
}
