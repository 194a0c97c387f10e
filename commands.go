package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"library-catalog/catalog"

	"github.com/spf13/cobra"
)

// listFlags are shared by the list command and the shell's initial filter.
type listFlags struct {
	search    string
	category  string
	available bool
	borrowed  bool
	view      string
}

func (f listFlags) query() (catalog.Query, error) {
	category := catalog.Category(f.category)
	if category != catalog.CategoryAll && !category.Valid() {
		return catalog.Query{}, fmt.Errorf("unknown category %q", f.category)
	}
	return catalog.Query{
		Search:   f.search,
		Category: category,
		Statuses: catalog.StatusFilter{Available: f.available, Borrowed: f.borrowed},
	}, nil
}

func checkView(view string) error {
	if view != viewGrid && view != viewList {
		return fmt.Errorf("unknown view %q: want grid or list", view)
	}
	return nil
}

// renderer builds a renderer for cmd's output using the saved theme.
func (a *app) renderer(cmd *cobra.Command, view string) renderer {
	theme, err := catalog.LoadTheme(a.storage)
	if err != nil {
		a.logger.Warn("using default theme", "error", err.Error())
	}
	return newRenderer(cmd.OutOrStdout(), view, theme)
}

func newListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books matching a search, category and status filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkView(f.view); err != nil {
				return err
			}
			q, err := f.query()
			if err != nil {
				return err
			}
			a.renderer(cmd, f.view).books(a.store.QueryBooks(q))
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive match on title or author")
	cmd.Flags().StringVarP(&f.category, "category", "c", string(catalog.CategoryAll), "all, fiction, science, history, biography or non-fiction")
	cmd.Flags().BoolVar(&f.available, "available", true, "include available books")
	cmd.Flags().BoolVar(&f.borrowed, "borrowed", true, "include borrowed books")
	cmd.Flags().StringVar(&f.view, "view", a.cfg.View, "grid or list")
	return cmd
}

func bookInputFlags(cmd *cobra.Command, in *catalog.BookInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "book author")
	cmd.Flags().StringVar((*string)(&in.Category), "category", "", "fiction, science, history, biography or non-fiction")
	cmd.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN")
	cmd.Flags().IntVar(&in.Published, "published", 0, "publication year")
}

func newAddCmd(a *app) *cobra.Command {
	var in catalog.BookInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := a.store.AddBook(in)
			if err != nil {
				return fmt.Errorf("adding book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book ID %d\n", book.ID)
			a.renderer(cmd, viewList).book(book)
			return nil
		},
	}
	bookInputFlags(cmd, &in)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var in catalog.BookInput
	cmd := &cobra.Command{
		Use:   "edit <book-id>",
		Short: "Change a book's details; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.store.Book(id)
			if err != nil {
				return err
			}

			merged := catalog.BookInput{
				Title:     current.Title,
				Author:    current.Author,
				Category:  current.Category,
				ISBN:      current.ISBN,
				Published: current.Published,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				merged.Title = in.Title
			}
			if flags.Changed("author") {
				merged.Author = in.Author
			}
			if flags.Changed("category") {
				merged.Category = in.Category
			}
			if flags.Changed("isbn") {
				merged.ISBN = in.ISBN
			}
			if flags.Changed("published") {
				merged.Published = in.Published
			}

			book, err := a.store.EditBook(id, merged)
			if err != nil {
				return fmt.Errorf("editing book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated book ID %d\n", book.ID)
			a.renderer(cmd, viewList).book(book)
			return nil
		},
	}
	bookInputFlags(cmd, &in)
	return cmd
}

func newBorrowCmd(a *app) *cobra.Command {
	var loan catalog.LoanInput
	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Lend an available book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if loan.BorrowDate == "" {
				loan.BorrowDate = time.Now().Format(catalog.DateLayout)
			}
			book, err := a.store.BorrowBook(id, loan)
			if err != nil {
				return fmt.Errorf("borrowing book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' borrowed by %s until %s\n", book.Title, loan.Borrower, loan.ReturnDate)
			return nil
		},
	}
	cmd.Flags().StringVar(&loan.Borrower, "borrower", "", "name of the borrower")
	cmd.Flags().StringVar(&loan.BorrowDate, "borrow-date", "", "YYYY-MM-DD, defaults to today")
	cmd.Flags().StringVar(&loan.ReturnDate, "return-date", "", "YYYY-MM-DD the book is due back")
	_ = cmd.MarkFlagRequired("borrower")
	_ = cmd.MarkFlagRequired("return-date")
	return cmd
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <book-id>",
		Short: "Take a borrowed book back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			book, err := a.store.ReturnBook(id)
			if err != nil {
				return fmt.Errorf("returning book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' is now available\n", book.Title)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the borrow history, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := a.store.History()
			if pending {
				open := entries[:0]
				for _, h := range entries {
					if h.Open() {
						open = append(open, h)
					}
				}
				entries = open
			}
			a.renderer(cmd, viewList).history(entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only show loans that are still open")
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := catalog.LoadTheme(a.storage)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if args[0] == "toggle" {
					theme = theme.Toggle()
				} else if theme, err = catalog.ParseTheme(args[0]); err != nil {
					return err
				}
				if err := catalog.SaveTheme(a.storage, theme); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
			return nil
		},
	}
}

var errInconsistent = errors.New("catalog is inconsistent")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that book statuses agree with the borrow history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if sqlite, ok := a.storage.(*catalog.SQLiteStorage); ok {
				collections, err := sqlite.Collections()
				if err != nil {
					return err
				}
				for _, name := range []string{catalog.CollectionBooks, catalog.CollectionHistory, catalog.CollectionTheme} {
					at, ok := collections[name]
					switch {
					case ok:
						fmt.Fprintf(out, "%-8s saved %s\n", name, at.Local().Format(time.DateTime))
					case name == catalog.CollectionTheme:
						fmt.Fprintf(out, "%-8s never saved (default %s)\n", name, catalog.ThemeLight)
					default:
						fmt.Fprintf(out, "%-8s never saved (sample data)\n", name)
					}
				}
			}

			problems := a.store.Check()
			if len(problems) == 0 {
				fmt.Fprintf(out, "Catalog is consistent: %d books, %d history entries\n", len(a.store.Books()), len(a.store.History()))
				return nil
			}
			for _, p := range problems {
				fmt.Fprintln(out, p)
			}
			return fmt.Errorf("%w: %d problem(s)", errInconsistent, len(problems))
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book ID: %s", s)
	}
	return id, nil
}
