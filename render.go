package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"library-catalog/catalog"

	"golang.org/x/term"
)

const (
	viewGrid = "grid"
	viewList = "list"

	defaultWidth = 80
	cardWidth    = 30
	cardGap      = 2
)

// palette holds the escape sequences used to colour book statuses.
type palette struct {
	available, borrowed, dim, reset string
}

var palettes = map[catalog.Theme]palette{
	catalog.ThemeLight: {available: "\033[32m", borrowed: "\033[31m", dim: "\033[90m", reset: "\033[0m"},
	catalog.ThemeDark:  {available: "\033[92m", borrowed: "\033[91m", dim: "\033[37m", reset: "\033[0m"},
}

// renderer writes catalog data for humans. Colours and terminal width are
// only used when w is a terminal.
type renderer struct {
	w      io.Writer
	view   string
	width  int
	colors palette
}

func newRenderer(w io.Writer, view string, theme catalog.Theme) renderer {
	r := renderer{w: w, view: view, width: defaultWidth}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			r.width = width
		}
		r.colors = palettes[theme]
	}
	return r
}

func (r renderer) books(books []catalog.Book) {
	if len(books) == 0 {
		fmt.Fprintln(r.w, "No books found. Try adjusting your filters or add a new book.")
		return
	}
	if r.view == viewList {
		r.bookTable(books)
		return
	}
	r.bookGrid(books)
}

func (r renderer) bookTable(books []catalog.Book) {
	fmt.Fprintf(r.w, "%-14s %-30s %-22s %-12s %-10s %s\n", "ID", "Title", "Author", "Category", "Status", "Borrower")
	fmt.Fprintln(r.w, strings.Repeat("-", 110))
	for _, b := range books {
		borrower := ""
		if !b.Available() {
			borrower = fmt.Sprintf("%s (due %s)", b.BorrowerName(), deref(b.ReturnDate))
		}
		fmt.Fprintf(r.w, "%-14d %-30s %-22s %-12s %s %s\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 22),
			b.Category.Label(),
			r.status(b.Status, 10),
			borrower)
	}
}

func (r renderer) bookGrid(books []catalog.Book) {
	perRow := max(1, (r.width+cardGap)/(cardWidth+cardGap))
	for start := 0; start < len(books); start += perRow {
		end := min(start+perRow, len(books))
		cards := make([][]string, 0, end-start)
		for _, b := range books[start:end] {
			cards = append(cards, r.card(b))
		}
		for line := range cards[0] {
			parts := make([]string, len(cards))
			for i, c := range cards {
				parts[i] = c[line]
			}
			fmt.Fprintln(r.w, strings.TrimRight(strings.Join(parts, strings.Repeat(" ", cardGap)), " "))
		}
		fmt.Fprintln(r.w)
	}
}

// card renders one book as fixed-width lines.
func (r renderer) card(b catalog.Book) []string {
	inner := cardWidth - 4
	status := r.status(b.Status, 0)
	statusPad := inner - len(b.Category.Label()) - 3 - len(string(b.Status))
	lines := []string{
		"+" + strings.Repeat("-", cardWidth-2) + "+",
		"| " + pad(truncateString(b.Title, inner), inner) + " |",
		"| " + pad(truncateString(b.Author, inner), inner) + " |",
		"| " + b.Category.Label() + " · " + status + strings.Repeat(" ", max(0, statusPad)) + " |",
		"| " + pad(fmt.Sprintf("#%d", b.ID), inner) + " |",
		"+" + strings.Repeat("-", cardWidth-2) + "+",
	}
	return lines
}

func (r renderer) status(s catalog.Status, width int) string {
	text := fmt.Sprintf("%-*s", width, string(s))
	if r.colors.reset == "" {
		return text
	}
	color := r.colors.available
	if s == catalog.StatusBorrowed {
		color = r.colors.borrowed
	}
	return color + text + r.colors.reset
}

// book prints a single book as a one-row table.
func (r renderer) book(b catalog.Book) {
	r.view = viewList
	r.books([]catalog.Book{b})
}

func (r renderer) history(entries []catalog.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.w, "No borrowing history yet.")
		return
	}
	for _, h := range entries {
		state := "Pending"
		if h.Returned {
			state = "Returned " + deref(h.ReturnedDate)
		}
		fmt.Fprintf(r.w, "%-40s Borrowed by: %-20s %s - %s  %s\n",
			truncateString(h.BookTitle, 40),
			truncateString(h.Borrower, 20),
			h.BorrowDate, h.ReturnDate,
			r.dim(state))
	}
}

func (r renderer) dim(s string) string {
	if r.colors.reset == "" {
		return s
	}
	return r.colors.dim + s + r.colors.reset
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func truncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
