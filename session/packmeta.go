package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// packMetaSchema compiles once: pack.mcmeta (§6's output layout) must carry
// a `pack` object with an integer `pack_format` and a string `description`,
// the two fields every Minecraft-side datapack loader requires.
var packMetaSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	const raw = `{
		"type": "object",
		"required": ["pack"],
		"properties": {
			"pack": {
				"type": "object",
				"required": ["pack_format", "description"],
				"properties": {
					"pack_format": {"type": "integer"},
					"description": {"type": "string"}
				}
			}
		}
	}`
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("pack-mcmeta.json", strings.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile("pack-mcmeta.json")
})

// buildPackMeta assembles the pack.mcmeta body from the session's configured
// format/description and validates it against packMetaSchema before the
// driver ever writes it out.
func buildPackMeta(format int, description string) (map[string]any, error) {
	meta := map[string]any{
		"pack": map[string]any{
			"pack_format": format,
			"description": description,
		},
	}
	schema, err := packMetaSchema()
	if err != nil {
		return nil, fmt.Errorf("compile pack.mcmeta schema: %w", err)
	}
	// jsonschema validates against decoded JSON values (float64, not int),
	// so round-trip through json.Unmarshal the same way a driver reading
	// this file back off disk would see it.
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, err
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("invalid pack.mcmeta: %w", err)
	}
	return meta, nil
}
