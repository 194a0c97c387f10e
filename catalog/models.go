package catalog

import "strings"

// Category is one of the fixed shelves a book can be filed under.
type Category string

const (
	CategoryAll        Category = "all"
	CategoryFiction    Category = "fiction"
	CategoryScience    Category = "science"
	CategoryHistory    Category = "history"
	CategoryBiography  Category = "biography"
	CategoryNonFiction Category = "non-fiction"
)

// Categories lists the concrete categories in display order.
var Categories = []Category{
	CategoryFiction,
	CategoryScience,
	CategoryHistory,
	CategoryBiography,
	CategoryNonFiction,
}

// Label returns the capitalised category name shown to users.
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Valid reports whether c is a concrete category (the "all" wildcard is not).
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the circulation state of a book.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
)

// Book is a catalog record. Borrower, BorrowDate and ReturnDate are set
// exactly when Status is StatusBorrowed and are stored as null otherwise.
// Dates use the YYYY-MM-DD layout.
type Book struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Category   Category `json:"category"`
	ISBN       string   `json:"isbn"`
	Published  int      `json:"published"`
	Status     Status   `json:"status"`
	Borrower   *string  `json:"borrower"`
	BorrowDate *string  `json:"borrowDate"`
	ReturnDate *string  `json:"returnDate"`
}

// Available reports whether the book can be borrowed.
func (b Book) Available() bool { return b.Status == StatusAvailable }

// BorrowerName returns the current borrower or "".
func (b Book) BorrowerName() string {
	if b.Borrower == nil {
		return ""
	}
	return *b.Borrower
}

// withDetails returns a copy of b carrying the editable fields of in.
func (b Book) withDetails(in BookInput) Book {
	b.Title = in.Title
	b.Author = in.Author
	b.Category = in.Category
	b.ISBN = in.ISBN
	b.Published = in.Published
	return b
}

// lentTo returns a borrowed copy of b.
func (b Book) lentTo(loan LoanInput) Book {
	b.Status = StatusBorrowed
	b.Borrower = strPtr(loan.Borrower)
	b.BorrowDate = strPtr(loan.BorrowDate)
	b.ReturnDate = strPtr(loan.ReturnDate)
	return b
}

// released returns an available copy of b with the loan fields cleared.
func (b Book) released() Book {
	b.Status = StatusAvailable
	b.Borrower = nil
	b.BorrowDate = nil
	b.ReturnDate = nil
	return b
}

// HistoryEntry records one loan. ReturnDate is the due date; ReturnedDate is
// the day the book actually came back and is only set once Returned is true.
type HistoryEntry struct {
	ID           int64   `json:"id"`
	BookID       int64   `json:"bookId"`
	BookTitle    string  `json:"bookTitle"`
	Borrower     string  `json:"borrower"`
	BorrowDate   string  `json:"borrowDate"`
	ReturnDate   string  `json:"returnDate"`
	Returned     bool    `json:"returned"`
	ReturnedDate *string `json:"returnedDate,omitempty"`
}

// Open reports whether the entry tracks an active loan.
func (h HistoryEntry) Open() bool { return !h.Returned }

func (h HistoryEntry) closedOn(date string) HistoryEntry {
	h.Returned = true
	h.ReturnedDate = strPtr(date)
	return h
}

// BookInput carries the user-editable fields of a book.
type BookInput struct {
	Title     string   `json:"title" validate:"required"`
	Author    string   `json:"author" validate:"required"`
	Category  Category `json:"category" validate:"required,oneof=fiction science history biography non-fiction"`
	ISBN      string   `json:"isbn"`
	Published int      `json:"published" validate:"gte=0"`
}

// LoanInput carries the borrow form.
type LoanInput struct {
	Borrower   string `json:"borrower" validate:"required"`
	BorrowDate string `json:"borrowDate" validate:"required,datetime=2006-01-02"`
	ReturnDate string `json:"returnDate" validate:"required,datetime=2006-01-02"`
}

// DateLayout is the calendar date format used for every persisted date.
const DateLayout = "2006-01-02"

func strPtr(s string) *string { return &s }
