package main

import (
	"log"

	"github.com/joho/godotenv"

	"menuscan/cmd"
	"menuscan/internal/config"
	"menuscan/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Commands that need the full configuration load and validate it
	// themselves; here only the logging settings matter.
	cfg, err := config.Load()
	if err != nil {
		if err := logger.Setup(config.LoggerConfigFromEnv()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting menuscan")

	cmd.Execute()
}
