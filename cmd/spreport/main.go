package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"spreport/infrastructure/config"
	"spreport/logging"
)

func main() {
	// Load .env if present, actual env vars take precedence
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
		}
	}

	appConfig := config.LoadAppConfigFromEnv()
	logger := logging.NewLogger(appConfig.Logging)
	logging.SetDefault(logger)

	if err := Execute(); err != nil {
		logger.Error("Report failed", "error", err.Error())
		os.Exit(1)
	}
}
