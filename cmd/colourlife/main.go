package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/y0ug/colourlife/internal/session"
	"github.com/y0ug/colourlife/internal/webserver"
	"github.com/y0ug/colourlife/pkg/auth"
)

func main() {
	// Initialize Logrus
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found. Proceeding with environment variables.")
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logger.Fatalf("Invalid LOG_LEVEL: %v", err)
		}
		logger.SetLevel(level)
	}

	// Initialize Auth Config
	authConfig, err := auth.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to initialize auth config: %v", err)
	}
	authConfig.Provider.SetLogger(logger)

	logger.WithFields(logrus.Fields{
		"provider":    authConfig.Provider.Name(),
		"environment": authConfig.Provider.Environment(),
		"stateless":   !authConfig.Provider.UsesState(),
	}).Info("Auth provider configured")

	// Initialize the state store
	storeConfig, err := session.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load session store configuration: %v", err)
	}
	store, err := session.NewStore(storeConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize %s session store: %v", storeConfig.Type, err)
	}
	defer store.Close(context.Background())
	logger.Infof("Session store %s initialized successfully", storeConfig.Type)

	authHandler := auth.NewHandler(authConfig, store, logger)

	webServerConfig, err := webserver.NewWebserverConfig()
	if err != nil {
		logger.Fatalf("Failed to load webserver configuration: %v", err)
	}
	webServer := webserver.NewWebServer(webServerConfig, authHandler, logger)

	// Cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webServer.Serve(gctx)
	})
	g.Go(func() error {
		return session.RunJanitor(gctx, store, authConfig.StateExpiration, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Web server error: %v", err)
		return
	}

	logger.Info("Shutdown complete. Exiting.")
}
