package main

import (
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
	"github.com/SF-ND-NEW/miniapp-backend/internal/server"
)

// @title Campus Song Request API
// @version 1.0
// @description Backend for the campus radio song request miniapp

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("Server execution failed or shutdown encountered errors")
	}

	logger.Info().Msg("Application finished gracefully")
}
