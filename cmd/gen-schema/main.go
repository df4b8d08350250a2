// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Command gen-schema writes the request body JSON Schemas to schemas/.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tasklist/tasklist/internal/httpapi"
)

func main() {
	outDir := "schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, name := range httpapi.SchemaNames() {
		schema, err := httpapi.GenerateSchema(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema %s: %v\n", name, err)
			os.Exit(1)
		}

		outPath := filepath.Join(outDir, name+".schema.json")
		if err := os.WriteFile(outPath, append(schema, '\n'), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
}
