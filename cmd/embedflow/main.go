// embedflow builds protein embedding workflows: it merges hit proteins into a
// base dataset, embeds them with bio_embeddings and plots them with protspace.
//
// Usage:
//
//	embedflow run -c <config> -o <organism_name>
//	embedflow check-env -c <config>
//	embedflow status <workflow-dir> [--format=markdown]
package main

import (
	"os"

	"embedflow/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.NewConsole(os.Stdout).Errorf("%v", err)
		os.Exit(1)
	}
}
