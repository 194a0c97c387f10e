package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	logMsgSeeded          = "seeded collection with sample data"
	logMsgBookAdded       = "book added"
	logMsgBookEdited      = "book edited"
	logMsgBookBorrowed    = "book borrowed"
	logMsgBookReturned    = "book returned"
	logMsgNoOpenEntry     = "returned book has no open history entry"
	logMsgPersistFailed   = "persisting catalog failed"
	logMsgPersisted       = "catalog persisted"
	logAttrBooks          = "books"
	logAttrHistory        = "history"
	logAttrCollection     = "collection"
	logAttrBookID         = "book_id"
	logAttrBorrower       = "borrower"
	logAttrError          = "error"
	logAttrHistoryEntryID = "history_id"
)

// Store is the catalog: it owns the books and the loan history and writes
// both through to Storage after every mutation. A Store is safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	storage Storage
	books   []Book
	history []HistoryEntry
	lastID  int64

	now      func() time.Time
	logger   *slog.Logger
	validate *validator.Validate

	seedBooks   []Book
	seedHistory []HistoryEntry
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the Store. Mutations are logged at info
// level, seeding and persistence details at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, which drives id generation and return dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeed replaces the sample data used when storage holds no collection.
// Passing nil slices starts from an empty catalog.
func WithSeed(books []Book, history []HistoryEntry) Option {
	return func(s *Store) {
		s.seedBooks = books
		s.seedHistory = history
	}
}

// Open loads the catalog from storage, seeding each collection that has
// never been saved.
func Open(storage Storage, options ...Option) (*Store, error) {
	s := &Store{
		storage:     storage,
		now:         time.Now,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:    validator.New(),
		seedBooks:   SampleBooks(),
		seedHistory: SampleHistory(),
	}
	for _, opt := range options {
		opt(s)
	}

	found, err := loadJSON(storage, CollectionBooks, &s.books)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	if !found {
		s.books = append([]Book(nil), s.seedBooks...)
		s.logger.Debug(logMsgSeeded, logAttrCollection, CollectionBooks)
	}

	found, err = loadJSON(storage, CollectionHistory, &s.history)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !found {
		s.history = append([]HistoryEntry(nil), s.seedHistory...)
		s.logger.Debug(logMsgSeeded, logAttrCollection, CollectionHistory)
	}

	if s.books == nil {
		s.books = []Book{}
	}
	if s.history == nil {
		s.history = []HistoryEntry{}
	}

	for _, b := range s.books {
		s.lastID = max(s.lastID, b.ID)
	}
	for _, h := range s.history {
		s.lastID = max(s.lastID, h.ID)
	}
	return s, nil
}

// ------------------ Queries ------------------

// QueryBooks returns the books matching q in insertion order.
func (s *Store) QueryBooks(q Query) []Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterBooks(s.books, q)
}

// Books returns every book in insertion order.
func (s *Store) Books() []Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Book(nil), s.books...)
}

// History returns the loan log, most recent first.
func (s *Store) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HistoryEntry(nil), s.history...)
}

// Book returns the book with the given id.
func (s *Store) Book(id int64) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndex(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return s.books[i], nil
}

// ------------------ Mutations ------------------

// AddBook files a new, available book.
func (s *Store) AddBook(in BookInput) (Book, error) {
	if err := s.validate.Struct(in); err != nil {
		return Book{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book := Book{ID: s.nextID(), Status: StatusAvailable}.withDetails(in)
	books := append(append([]Book(nil), s.books...), book)
	if err := s.persist(books, s.history); err != nil {
		return Book{}, err
	}
	s.books = books

	s.logger.Info(logMsgBookAdded, logAttrBookID, book.ID)
	return book, nil
}

// EditBook replaces the editable fields of a book. Status and loan fields
// are left as they are.
func (s *Store) EditBook(id int64, in BookInput) (Book, error) {
	if err := s.validate.Struct(in); err != nil {
		return Book{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.bookIndex(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	book := s.books[i].withDetails(in)
	books := replaceAt(s.books, i, book)
	if err := s.persist(books, s.history); err != nil {
		return Book{}, err
	}
	s.books = books

	s.logger.Info(logMsgBookEdited, logAttrBookID, id)
	return book, nil
}

// BorrowBook lends an available book and opens a history entry for the loan.
func (s *Store) BorrowBook(id int64, loan LoanInput) (Book, error) {
	if err := s.validate.Struct(loan); err != nil {
		return Book{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.bookIndex(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if !s.books[i].Available() {
		return Book{}, fmt.Errorf("%w: book %d is already borrowed", ErrInvalidState, id)
	}

	book := s.books[i].lentTo(loan)
	entry := HistoryEntry{
		ID:         s.nextID(),
		BookID:     id,
		BookTitle:  book.Title,
		Borrower:   loan.Borrower,
		BorrowDate: loan.BorrowDate,
		ReturnDate: loan.ReturnDate,
	}

	books := replaceAt(s.books, i, book)
	history := append([]HistoryEntry{entry}, s.history...)
	if err := s.persist(books, history); err != nil {
		return Book{}, err
	}
	s.books, s.history = books, history

	s.logger.Info(logMsgBookBorrowed, logAttrBookID, id, logAttrBorrower, loan.Borrower, logAttrHistoryEntryID, entry.ID)
	return book, nil
}

// ReturnBook makes a book available again and closes its open history entry
// with today's date. A borrowed book without an open entry is still
// released. Returning a book that is neither borrowed nor tracked by an open
// entry fails with ErrInvalidState and changes nothing.
func (s *Store) ReturnBook(id int64) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.bookIndex(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	open := s.openEntryIndex(id)
	if s.books[i].Available() && open < 0 {
		return Book{}, fmt.Errorf("%w: book %d is not borrowed", ErrInvalidState, id)
	}

	book := s.books[i].released()
	books := replaceAt(s.books, i, book)
	history := s.history
	if open >= 0 {
		today := s.now().UTC().Format(DateLayout)
		history = replaceAt(s.history, open, s.history[open].closedOn(today))
	} else {
		s.logger.Warn(logMsgNoOpenEntry, logAttrBookID, id)
	}

	if err := s.persist(books, history); err != nil {
		return Book{}, err
	}
	s.books, s.history = books, history

	s.logger.Info(logMsgBookReturned, logAttrBookID, id)
	return book, nil
}

// ------------------ Internals ------------------

func (s *Store) bookIndex(id int64) int {
	for i, b := range s.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) openEntryIndex(bookID int64) int {
	for i, h := range s.history {
		if h.BookID == bookID && h.Open() {
			return i
		}
	}
	return -1
}

// nextID derives an id from the wall clock, bumped past every id already in
// use so that two calls within the same millisecond still differ.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// persist writes both collections. The caller swaps them in only after a
// successful write.
func (s *Store) persist(books []Book, history []HistoryEntry) error {
	booksData, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode books: %w", err)
	}
	historyData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	batch := map[string][]byte{
		CollectionBooks:   booksData,
		CollectionHistory: historyData,
	}
	if err := saveAll(s.storage, batch); err != nil {
		s.logger.Error(logMsgPersistFailed, logAttrError, err.Error())
		return fmt.Errorf("persist catalog: %w", err)
	}
	s.logger.Debug(logMsgPersisted, logAttrBooks, len(books), logAttrHistory, len(history))
	return nil
}

func saveAll(storage Storage, batch map[string][]byte) error {
	if bs, ok := storage.(BatchSaver); ok {
		return bs.SaveBatch(batch)
	}
	for _, name := range []string{CollectionBooks, CollectionHistory} {
		data, ok := batch[name]
		if !ok {
			continue
		}
		if err := storage.Save(name, data); err != nil {
			return err
		}
	}
	return nil
}

func replaceAt[T any](items []T, i int, v T) []T {
	out := append([]T(nil), items...)
	out[i] = v
	return out
}
