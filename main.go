package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/app"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/logging"
)

func main() {
	cli := kingpin.New("folio", "Portfolio site with a live-editing admin dashboard")
	configFile := cli.Flag("config", "Path to YAML configuration file").String()
	port := cli.Flag("port", "HTTP port or host:port to listen on").String()
	dbPath := cli.Flag("db", "Path to the SQLite database").String()
	store := cli.Flag("store", "Content store driver (sqlite or firestore)").String()
	templatesDir := cli.Flag("templates-dir", "Serve templates from this directory and reload on change").String()
	mode := cli.Flag("mode", "Run mode (debug, release or test)").String()

	kingpin.MustParse(cli.Parse(os.Args[1:]))

	cfg, err := config.Load(&config.CLIOverrides{
		ConfigFile:   *configFile,
		Port:         port,
		DatabasePath: dbPath,
		StoreDriver:  store,
		TemplatesDir: templatesDir,
		Mode:         mode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	if err := server.Run(ctx); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("goodbye")
}
