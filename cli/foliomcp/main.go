package main

import (
	"os"

	mcpcmder "github.com/frantai/folio/cmd/folio/serve/mcp"
)

func main() {
	cmd := mcpcmder.NewMCPCmd()
	cmd.Use = "foliomcp"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .folio/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
