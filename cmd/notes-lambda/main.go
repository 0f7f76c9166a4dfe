package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"go.uber.org/zap"

	"notesapi/app"
	"notesapi/config"
	"notesapi/logging"
)

// The function is configured entirely from NOTES_* environment variables.
// Behind a functions gateway set NOTES_HTTP_BASE_PATH to the mount prefix.
func main() {
	cfg, err := config.Load(config.NewViper())
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer application.Close()

	lambda.Start(httpadapter.New(application.Handler).ProxyWithContext)
}
