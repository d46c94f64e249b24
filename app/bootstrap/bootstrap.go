package bootstrap

import (
	"log"

	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/di"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Init bootstraps configuration, logger and the dependency container shared
// by the gateway, worker and ragcore binaries.
func Init() (*dig.Container, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	container := di.InitContainer()
	if err := di.RegisterProviders(container); err != nil {
		return nil, err
	}

	return container, nil
}
