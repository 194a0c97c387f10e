package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"library-catalog/catalog"
	"library-catalog/config"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := newImportCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd(cfg config.Config) *cobra.Command {
	var (
		dbPath string
		reset  bool
	)
	cmd := &cobra.Command{
		Use:          "import_catalog <books.json>",
		Short:        "Import a JSON array of books into the catalog database",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))

			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()
			books, err := readBooks(f)
			if err != nil {
				return err
			}

			if reset {
				fmt.Fprintln(out, "Cleaning up existing database files...")
				for _, file := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
					if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
						fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", file, err)
					}
				}
			}

			storage, err := catalog.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer storage.Close()

			opts := []catalog.Option{catalog.WithLogger(logger)}
			if reset {
				opts = append(opts, catalog.WithSeed(nil, nil))
			}
			store, err := catalog.Open(storage, opts...)
			if err != nil {
				return err
			}

			return importBooks(out, store, books)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", cfg.DBPath, "path of the catalog database")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete the database and start from an empty catalog")
	return cmd
}

func readBooks(r io.Reader) ([]catalog.BookInput, error) {
	var books []catalog.BookInput
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	return books, nil
}

func importBooks(out io.Writer, store *catalog.Store, books []catalog.BookInput) error {
	fmt.Fprintf(out, "Importing %d books...\n", len(books))

	successCount := 0
	errorCount := 0
	for _, in := range books {
		fmt.Fprintf(out, "Importing: %s by %s... ", in.Title, in.Author)
		book, err := store.AddBook(in)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", book.ID)
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Fprintln(out, "\nCatalog:")
		fmt.Fprintf(out, "%-14s %-50s %-30s\n", "ID", "Title", "Author")
		fmt.Fprintln(out, strings.Repeat("-", 96))
		for _, book := range store.Books() {
			fmt.Fprintf(out, "%-14d %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%d book(s) could not be imported", errorCount)
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
