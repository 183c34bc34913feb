// Command folioctl manages site content from the terminal: seeding and
// exporting YAML bundles, previewing posts and hashing admin passwords.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/app"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/logging"
	"github.com/Zachkp/folio/internal/sqlitedb"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	dbPath     string
	store      string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          "folioctl",
		Short:        "Manage portfolio content",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "path to YAML configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "path to the SQLite database")
	flags.StringVar(&opts.store, "store", "", "content store driver (sqlite or firestore)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log storage activity")

	root.AddCommand(
		newSeedCmd(opts),
		newExportCmd(opts),
		newPreviewCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

// session is an open content repository and what it needs to be closed.
type session struct {
	repo  *content.Repository
	close func()
}

func openSession(ctx context.Context, opts *globalOptions) (*session, error) {
	cfg, err := config.Load(&config.CLIOverrides{
		ConfigFile:   opts.configFile,
		DatabasePath: &opts.dbPath,
		StoreDriver:  &opts.store,
	})
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = logging.New("debug"); err != nil {
			return nil, fmt.Errorf("initialize logger: %w", err)
		}
	}

	db, err := sqlitedb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store, err := app.OpenStore(ctx, cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{
		repo: content.NewRepository(store),
		close: func() {
			_ = store.Close()
			_ = db.Close()
			_ = logger.Sync()
		},
	}, nil
}
