package main

import (
	"os"

	previewcmder "github.com/frantai/folio/cmd/folio/serve/preview"
)

func main() {
	cmd := previewcmder.NewPreviewCmd()
	cmd.Use = "foliopreview"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .folio/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
