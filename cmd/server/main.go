package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/arcms/internal/logging"
	"github.com/dmitrijs2005/arcms/internal/server"
	"github.com/dmitrijs2005/arcms/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.IsDevelopment(), cfg.ResolvedLogLevel())

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, err.Error())
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, err.Error())
		os.Exit(1)
	}
}
