package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"library-catalog/catalog"
	"library-catalog/debounce"

	"github.com/spf13/cobra"
)

// shell is the interactive front end. It keeps only transient selections
// (the current filter and view); all catalog state lives in the store.
type shell struct {
	app      *app
	sc       *bufio.Scanner
	out      io.Writer
	query    catalog.Query
	view     string
	debounce time.Duration

	// renderMu serialises writes to out; debounced searches render from a
	// timer goroutine.
	renderMu sync.Mutex
}

func newShellCmd(a *app) *cobra.Command {
	var debounceWait time.Duration
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Browse and manage the catalog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := &shell{
				app:      a,
				sc:       bufio.NewScanner(cmd.InOrStdin()),
				out:      cmd.OutOrStdout(),
				query:    catalog.Query{Category: catalog.CategoryAll, Statuses: catalog.AllStatuses},
				view:     a.cfg.View,
				debounce: debounceWait,
			}
			return s.run()
		},
	}
	cmd.Flags().DurationVar(&debounceWait, "debounce", a.cfg.SearchDebounce, "idle time before a live search is re-run")
	return cmd
}

func (s *shell) printf(format string, args ...any) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) run() error {
	s.printf("Welcome to the Library Catalog!\n")
	s.printHelp()
	s.refresh()

	for {
		s.printf("\n> ")
		if !s.sc.Scan() {
			break
		}
		cmd := strings.TrimSpace(s.sc.Text())

		switch {
		case cmd == "":
			continue
		case cmd == "list":
			s.refresh()
		case cmd == "search":
			s.handleLiveSearch()
		case strings.HasPrefix(cmd, "search "):
			s.query.Search = strings.TrimSpace(strings.TrimPrefix(cmd, "search "))
			s.refresh()
		case strings.HasPrefix(cmd, "category"):
			s.handleCategory(strings.TrimSpace(strings.TrimPrefix(cmd, "category")))
		case strings.HasPrefix(cmd, "status"):
			s.handleStatus(strings.TrimSpace(strings.TrimPrefix(cmd, "status")))
		case cmd == "grid" || cmd == "view grid":
			s.view = viewGrid
			s.refresh()
		case cmd == "list view" || cmd == "view list":
			s.view = viewList
			s.refresh()
		case cmd == "add book":
			s.handleAddBook()
		case cmd == "edit book":
			s.handleEditBook()
		case cmd == "borrow":
			s.handleBorrow()
		case cmd == "return":
			s.handleReturn()
		case cmd == "history":
			s.render(func(r renderer) { r.history(s.app.store.History()) })
		case cmd == "theme":
			s.handleTheme()
		case cmd == "check":
			s.handleCheck()
		case cmd == "help":
			s.printHelp()
		case cmd == "exit" || cmd == "quit":
			s.printf("Goodbye!\n")
			return nil
		default:
			s.printf("Unknown command. Type 'help' to see the available commands.\n")
		}
	}
	return s.sc.Err()
}

func (s *shell) printHelp() {
	s.printf("Available commands:\n")
	s.printf("  Browse: list, search [term], category <name|all>, status <available|borrowed|both|none>, view grid, view list\n")
	s.printf("  Books: add book, edit book\n")
	s.printf("  Circulation: borrow, return, history\n")
	s.printf("  System: theme, check, help, exit\n")
	s.printf("Tip: 'search' without a term starts a live search; finish it with an empty line.\n")
}

func (s *shell) render(fn func(renderer)) {
	theme, err := catalog.LoadTheme(s.app.storage)
	if err != nil {
		s.app.logger.Warn("using default theme", "error", err.Error())
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	fn(newRenderer(s.out, s.view, theme))
}

// refresh re-runs the current query and renders the result.
func (s *shell) refresh() {
	s.renderQuery(s.query)
}

func (s *shell) renderQuery(q catalog.Query) {
	books := s.app.store.QueryBooks(q)
	s.render(func(r renderer) { r.books(books) })
}

func (s *shell) describeFilter() string {
	var statuses []string
	if s.query.Statuses.Available {
		statuses = append(statuses, "available")
	}
	if s.query.Statuses.Borrowed {
		statuses = append(statuses, "borrowed")
	}
	if len(statuses) == 0 {
		statuses = append(statuses, "none")
	}
	return fmt.Sprintf("search=%q category=%s status=%s view=%s",
		s.query.Search, s.query.Category, strings.Join(statuses, "+"), s.view)
}

// handleLiveSearch treats every line as the new search term and re-runs the
// query once input has been idle for the debounce interval.
func (s *shell) handleLiveSearch() {
	s.printf("Live search: type to refine, empty line to finish.\n")
	q := s.query
	d := debounce.New(s.debounce, s.renderQuery)

	for s.sc.Scan() {
		line := s.sc.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		q.Search = strings.TrimSpace(line)
		d.Trigger(q)
	}
	d.Flush()

	s.query = q
	s.printf("Filter: %s\n", s.describeFilter())
}

func (s *shell) handleCategory(arg string) {
	if arg == "" {
		s.printf("Category: %s\n", s.query.Category)
		return
	}
	category := catalog.Category(strings.ToLower(arg))
	if category != catalog.CategoryAll && !category.Valid() {
		s.printf("Unknown category %q.\n", arg)
		return
	}
	s.query.Category = category
	s.refresh()
}

func (s *shell) handleStatus(arg string) {
	switch strings.ToLower(arg) {
	case "available":
		s.query.Statuses = catalog.StatusFilter{Available: true}
	case "borrowed":
		s.query.Statuses = catalog.StatusFilter{Borrowed: true}
	case "both", "all":
		s.query.Statuses = catalog.AllStatuses
	case "none":
		s.query.Statuses = catalog.StatusFilter{}
	case "":
		s.printf("Filter: %s\n", s.describeFilter())
		return
	default:
		s.printf("Unknown status %q.\n", arg)
		return
	}
	s.refresh()
}

// prompt asks for one line. ok is false when input ended.
func (s *shell) prompt(label string) (string, bool) {
	s.printf("%s: ", label)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) promptID() (int64, bool) {
	raw, ok := s.prompt("Book ID")
	if !ok {
		return 0, false
	}
	id, err := parseID(raw)
	if err != nil {
		s.printf("%v\n", err)
		return 0, false
	}
	return id, true
}

// promptBookInput fills in using current values as defaults: an empty
// answer keeps the default.
func (s *shell) promptBookInput(current catalog.BookInput) (catalog.BookInput, bool) {
	in := current
	fields := []struct {
		label string
		dst   *string
	}{
		{"Title", &in.Title},
		{"Author", &in.Author},
		{"Category", (*string)(&in.Category)},
		{"ISBN", &in.ISBN},
	}
	for _, f := range fields {
		label := f.label
		if *f.dst != "" {
			label = fmt.Sprintf("%s [%s]", f.label, *f.dst)
		}
		v, ok := s.prompt(label)
		if !ok {
			return in, false
		}
		if v != "" {
			*f.dst = v
		}
	}

	label := "Published year"
	if in.Published != 0 {
		label = fmt.Sprintf("%s [%d]", label, in.Published)
	}
	v, ok := s.prompt(label)
	if !ok {
		return in, false
	}
	if v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			s.printf("Invalid year: %s\n", v)
			return in, false
		}
		in.Published = year
	}
	in.Category = catalog.Category(strings.ToLower(string(in.Category)))
	return in, true
}

func (s *shell) handleAddBook() {
	in, ok := s.promptBookInput(catalog.BookInput{})
	if !ok {
		return
	}
	book, err := s.app.store.AddBook(in)
	if err != nil {
		s.printf("Error adding book: %v\n", err)
		return
	}
	s.printf("Added book ID %d\n", book.ID)
	s.refresh()
}

func (s *shell) handleEditBook() {
	id, ok := s.promptID()
	if !ok {
		return
	}
	current, err := s.app.store.Book(id)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	in, ok := s.promptBookInput(catalog.BookInput{
		Title:     current.Title,
		Author:    current.Author,
		Category:  current.Category,
		ISBN:      current.ISBN,
		Published: current.Published,
	})
	if !ok {
		return
	}
	if _, err := s.app.store.EditBook(id, in); err != nil {
		s.printf("Error editing book: %v\n", err)
		return
	}
	s.printf("Book %d updated\n", id)
	s.refresh()
}

func (s *shell) handleBorrow() {
	id, ok := s.promptID()
	if !ok {
		return
	}
	var loan catalog.LoanInput
	if loan.Borrower, ok = s.prompt("Borrower name"); !ok {
		return
	}
	today := time.Now().Format(catalog.DateLayout)
	if loan.BorrowDate, ok = s.prompt(fmt.Sprintf("Borrow date [%s]", today)); !ok {
		return
	}
	if loan.BorrowDate == "" {
		loan.BorrowDate = today
	}
	if loan.ReturnDate, ok = s.prompt("Return date (YYYY-MM-DD)"); !ok {
		return
	}

	book, err := s.app.store.BorrowBook(id, loan)
	switch {
	case errors.Is(err, catalog.ErrInvalidState):
		s.printf("Book %d is already borrowed.\n", id)
		return
	case err != nil:
		s.printf("Error borrowing book: %v\n", err)
		return
	}
	s.printf("Book '%s' borrowed by %s\n", book.Title, loan.Borrower)
	s.refresh()
}

func (s *shell) handleReturn() {
	id, ok := s.promptID()
	if !ok {
		return
	}
	book, err := s.app.store.ReturnBook(id)
	switch {
	case errors.Is(err, catalog.ErrInvalidState):
		s.printf("Book %d is not borrowed.\n", id)
		return
	case err != nil:
		s.printf("Error returning book: %v\n", err)
		return
	}
	s.printf("Book '%s' is now available\n", book.Title)
	s.refresh()
}

func (s *shell) handleTheme() {
	theme, err := catalog.LoadTheme(s.app.storage)
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	theme = theme.Toggle()
	if err := catalog.SaveTheme(s.app.storage, theme); err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("Theme switched to %s\n", theme)
}

func (s *shell) handleCheck() {
	problems := s.app.store.Check()
	if len(problems) == 0 {
		s.printf("Catalog is consistent.\n")
		return
	}
	for _, p := range problems {
		s.printf("%s\n", p)
	}
}
