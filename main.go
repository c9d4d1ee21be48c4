package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tphakala/geopin-go/cmd"
	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/logging"
)

func main() {
	// Local overrides for development; missing file is fine.
	_ = godotenv.Load(".env")

	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
