package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/GMDU/zoglin/datapack"
)

// writeDatapack serialises every entry in dp to outDir, in Walk order —
// the driver's half of §4.6: the core only produces the in-memory model.
func writeDatapack(dp *datapack.Datapack, outDir string) error {
	var firstErr error
	dp.Walk(func(e *datapack.Entry) {
		if firstErr != nil {
			return
		}
		full := filepath.Join(outDir, filepath.FromSlash(e.Path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			firstErr = err
			return
		}
		switch e.Kind {
		case datapack.EntryFunction:
			content := strings.Join(e.Lines, "\n")
			if content != "" {
				content += "\n"
			}
			firstErr = os.WriteFile(full, []byte(content), 0o644)
		case datapack.EntryJSON:
			b, err := json.MarshalIndent(e.JSON, "", "  ")
			if err != nil {
				firstErr = err
				return
			}
			firstErr = os.WriteFile(full, b, 0o644)
		case datapack.EntryRaw:
			firstErr = os.WriteFile(full, e.Raw, 0o644)
		}
	})
	return firstErr
}
