// Schema Generator
//
// Generates JSON Schema files from Go types for use in Node.js Zod schema generation.
// Go is the source of truth for shared API types between services.
//
// Usage:
//
//	go run cmd/schema-gen/main.go [-out dir]
//
// Output:
//
//	<dir>/optimize.json
//	<dir>/preferences.json
//	<dir>/stores.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/smartcart/optimizer-service/internal/handlers"
)

// schemaGroup bundles the request and response types of one API surface
// into a single schema document.
type schemaGroup struct {
	name  string
	types []any
}

var groups = []schemaGroup{
	{
		name: "optimize",
		types: []any{
			handlers.ListItem{},
			handlers.OptimizeRequest{},
			handlers.Alternative{},
			handlers.ItemResult{},
			handlers.OptimizeResponse{},
		},
	},
	{
		name: "preferences",
		types: []any{
			handlers.UpdatePreferencesRequest{},
			handlers.Location{},
			handlers.WeightsDTO{},
			handlers.QualityWeightsDTO{},
			handlers.PreferencesResponse{},
		},
	},
	{
		name: "stores",
		types: []any{
			handlers.CreateStoreRequest{},
			handlers.StoreResponse{},
			handlers.EnrichResponse{},
			handlers.BatchEnrichResponse{},
		},
	},
}

func main() {
	// Default is relative to services/optimizer-service
	outputDir := flag.String("out", "../../shared/schemas", "directory to write schema files to")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, group := range groups {
		outputPath := filepath.Join(*outputDir, group.name+".json")
		if err := writeSchema(buildGroupSchema(group), outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

// buildGroupSchema reflects every type of a group and merges their $defs
// into one schema document
func buildGroupSchema(group schemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{}

	definitions := make(map[string]any)
	for _, t := range group.types {
		for name, def := range reflector.Reflect(t).Definitions {
			definitions[name] = def
		}
	}

	title := strings.ToUpper(group.name[:1]) + group.name[1:]
	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://smartcart.dev/schemas/%s.json", group.name),
		"title":       fmt.Sprintf("%s API Types", title),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
