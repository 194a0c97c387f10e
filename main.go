package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"library-catalog/catalog"
	"library-catalog/config"

	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root command has opened
// the catalog.
type app struct {
	cfg config.Config

	dbPath   string
	memory   bool
	logLevel string

	storage catalog.Storage
	closer  io.Closer
	store   *catalog.Store
	logger  *slog.Logger

	// storeOptions are appended when opening the store; tests use them to pin
	// the clock and seed data.
	storeOptions []catalog.Option
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg}
	if err := execute(a, newRootCmd(a)); err != nil {
		os.Exit(1)
	}
}

// execute runs root and closes whatever storage it opened, also when the
// command failed.
func execute(a *app, root *cobra.Command) error {
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage a library catalog and its borrow history",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", a.cfg.DBPath, "path of the catalog database")
	root.PersistentFlags().BoolVar(&a.memory, "memory", false, "keep the catalog in memory only")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", a.cfg.LogLevel.String(), "debug, info, warn or error")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newBorrowCmd(a),
		newReturnCmd(a),
		newHistoryCmd(a),
		newThemeCmd(a),
		newCheckCmd(a),
		newShellCmd(a),
	)
	return root
}

// open builds the logger, the storage and the store. A storage injected
// beforehand is used as is.
func (a *app) open(logOut io.Writer) error {
	level, err := config.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	if a.storage == nil {
		if a.memory {
			a.storage = catalog.NewMemoryStorage()
		} else {
			sqlite, err := catalog.NewSQLiteStorage(a.dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			a.storage, a.closer = sqlite, sqlite
		}
	}

	opts := append([]catalog.Option{catalog.WithLogger(a.logger)}, a.storeOptions...)
	store, err := catalog.Open(a.storage, opts...)
	if err != nil {
		a.close()
		return err
	}
	a.store = store
	return nil
}

// close releases storage opened by open. Injected storage is left alone.
func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer, a.storage, a.store = nil, nil, nil
	return err
}
