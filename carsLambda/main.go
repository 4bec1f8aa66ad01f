package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/pkg/api"
	"gitlab.connectwisedev.com/cars-service/pkg/app"
	"gitlab.connectwisedev.com/cars-service/pkg/config"
)

var (
	application *app.App
	proxy       *api.ProxyHandler
	ctx         = context.Background()
)

func init() {
	if _, err := config.LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	application, err = app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cars lambda", zap.Error(err))
	}

	proxy = api.NewProxyHandler(application.Router())
	logger.Info("Cars lambda handler initialized", zap.String("store", cfg.StoreDriver))
}

func main() {
	defer application.Close(ctx)
	lambda.Start(proxy.Handle)
}
