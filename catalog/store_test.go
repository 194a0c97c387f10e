package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...Option) (*Store, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	store, err := Open(storage, opts...)
	require.NoError(t, err)
	return store, storage
}

func newEmptyStore(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	return newStore(t, WithSeed(nil, nil))
}

var dune = BookInput{
	Title:     "Dune",
	Author:    "Frank Herbert",
	Category:  CategoryFiction,
	ISBN:      "9780441013593",
	Published: 1965,
}

var aliceLoan = LoanInput{Borrower: "Alice", BorrowDate: "2024-01-01", ReturnDate: "2024-01-31"}

// assertConsistent checks the status / loan fields / open entry invariant
// for every book.
func assertConsistent(t *testing.T, s *Store) {
	t.Helper()
	assert.Empty(t, s.Check())

	open := map[int64]int{}
	for _, h := range s.History() {
		if !h.Returned {
			open[h.BookID]++
		}
	}
	for _, b := range s.Books() {
		borrowed := b.Status == StatusBorrowed
		allSet := b.Borrower != nil && b.BorrowDate != nil && b.ReturnDate != nil
		noneSet := b.Borrower == nil && b.BorrowDate == nil && b.ReturnDate == nil
		if borrowed {
			assert.True(t, allSet, "book %d borrowed without loan fields", b.ID)
			assert.Equal(t, 1, open[b.ID], "book %d open entries", b.ID)
		} else {
			assert.True(t, noneSet, "book %d available with loan fields", b.ID)
			assert.Zero(t, open[b.ID], "book %d open entries", b.ID)
		}
	}
}

func TestOpenSeedsSampleData(t *testing.T) {
	store, storage := newStore(t)

	books := store.Books()
	require.Len(t, books, 6)
	assert.Equal(t, "The Great Gatsby", books[0].Title)
	assert.Equal(t, "Educated", books[4].Title)
	assert.Equal(t, StatusBorrowed, books[2].Status)
	assert.Equal(t, "John Smith", books[2].BorrowerName())

	history := store.History()
	require.Len(t, history, 3)
	assert.True(t, history[2].Returned)
	assert.Equal(t, "2023-05-05", *history[2].ReturnedDate)

	_, found, err := storage.Load(CollectionBooks)
	require.NoError(t, err)
	assert.False(t, found, "seeding alone does not write")

	assertConsistent(t, store)
}

func TestOpenLoadsPersistedState(t *testing.T) {
	store, storage := newEmptyStore(t)
	added, err := store.AddBook(dune)
	require.NoError(t, err)

	reopened, err := Open(storage)
	require.NoError(t, err)
	require.Len(t, reopened.Books(), 1)
	assert.Equal(t, added, reopened.Books()[0])
	assert.Empty(t, reopened.History(), "an empty saved history must not be replaced by the sample")
}

func TestOpenFailsOnCorruptCollection(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(CollectionBooks, []byte("{not json")))

	_, err := Open(storage)
	require.Error(t, err)
}

func TestQueryBooks(t *testing.T) {
	store, _ := newStore(t)

	t.Run("no filters returns everything in insertion order", func(t *testing.T) {
		got := store.QueryBooks(Query{Category: CategoryAll, Statuses: AllStatuses})
		assert.Equal(t, store.Books(), got)
	})

	t.Run("zero category behaves like all", func(t *testing.T) {
		got := store.QueryBooks(Query{Statuses: AllStatuses})
		assert.Len(t, got, 6)
	})

	t.Run("both toggles off yields nothing", func(t *testing.T) {
		assert.Empty(t, store.QueryBooks(Query{Category: CategoryAll}))
		assert.Empty(t, store.QueryBooks(Query{Search: "the", Category: CategoryScience}))
	})

	t.Run("search matches title or author case-insensitively", func(t *testing.T) {
		got := store.QueryBooks(Query{Search: "HISTORY", Statuses: AllStatuses})
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].ID)
		assert.Equal(t, int64(3), got[1].ID)

		got = store.QueryBooks(Query{Search: "westover", Statuses: AllStatuses})
		require.Len(t, got, 1)
		assert.Equal(t, "Educated", got[0].Title)
	})

	t.Run("category and status combine", func(t *testing.T) {
		got := store.QueryBooks(Query{Category: CategoryScience, Statuses: AllStatuses})
		require.Len(t, got, 2)

		got = store.QueryBooks(Query{Statuses: StatusFilter{Borrowed: true}})
		require.Len(t, got, 2)
		for _, b := range got {
			assert.Equal(t, StatusBorrowed, b.Status)
		}

		got = store.QueryBooks(Query{Category: CategoryHistory, Statuses: StatusFilter{Available: true}})
		assert.Empty(t, got)
	})
}

func TestAddBookThenSearch(t *testing.T) {
	store, storage := newEmptyStore(t)

	book, err := store.AddBook(dune)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, book.Status)
	assert.Nil(t, book.Borrower)
	assert.Equal(t, fixedNow.UnixMilli(), book.ID)

	got := store.QueryBooks(Query{Search: "dune", Category: CategoryAll, Statuses: AllStatuses})
	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Title)
	assert.Equal(t, StatusAvailable, got[0].Status)

	_, found, err := storage.Load(CollectionBooks)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestAddBookIDsAreDistinctWithinOneMillisecond(t *testing.T) {
	store, _ := newEmptyStore(t)

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		b, err := store.AddBook(dune)
		require.NoError(t, err)
		assert.False(t, seen[b.ID], "duplicate id %d", b.ID)
		seen[b.ID] = true
	}
}

func TestAddBookValidation(t *testing.T) {
	store, _ := newEmptyStore(t)

	cases := map[string]BookInput{
		"missing title":    {Author: "A", Category: CategoryFiction},
		"missing author":   {Title: "T", Category: CategoryFiction},
		"missing category": {Title: "T", Author: "A"},
		"unknown category": {Title: "T", Author: "A", Category: "poetry"},
		"wildcard":         {Title: "T", Author: "A", Category: CategoryAll},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := store.AddBook(in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, store.Books())
}

func TestEditBook(t *testing.T) {
	store, _ := newStore(t)

	edited, err := store.EditBook(3, BookInput{Title: "Sapiens", Author: "Y. N. Harari", Category: CategoryHistory, ISBN: "x", Published: 2014})
	require.NoError(t, err)
	assert.Equal(t, "Sapiens", edited.Title)
	assert.Equal(t, 2014, edited.Published)
	assert.Equal(t, StatusBorrowed, edited.Status, "status untouched")
	assert.Equal(t, "John Smith", edited.BorrowerName(), "loan untouched")

	got, err := store.Book(3)
	require.NoError(t, err)
	assert.Equal(t, edited, got)
	assertConsistent(t, store)
}

func TestEditBookNotFound(t *testing.T) {
	store, _ := newStore(t)
	before := store.Books()

	_, err := store.EditBook(999, dune)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, store.Books())
}

func TestBorrowAndReturn(t *testing.T) {
	store, _ := newStore(t)

	book, err := store.BorrowBook(1, aliceLoan)
	require.NoError(t, err)
	assert.Equal(t, StatusBorrowed, book.Status)
	assert.Equal(t, "Alice", *book.Borrower)
	assert.Equal(t, "2024-01-01", *book.BorrowDate)
	assert.Equal(t, "2024-01-31", *book.ReturnDate)

	history := store.History()
	require.Len(t, history, 4)
	assert.Equal(t, int64(1), history[0].BookID, "new entry is prepended")
	assert.Equal(t, "The Great Gatsby", history[0].BookTitle)
	assert.False(t, history[0].Returned)
	assert.Nil(t, history[0].ReturnedDate)
	assertConsistent(t, store)

	book, err = store.ReturnBook(1)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, book.Status)
	assert.Nil(t, book.Borrower)
	assert.Nil(t, book.BorrowDate)
	assert.Nil(t, book.ReturnDate)

	history = store.History()
	require.Len(t, history, 4)
	assert.True(t, history[0].Returned)
	require.NotNil(t, history[0].ReturnedDate)
	assert.Equal(t, "2024-02-10", *history[0].ReturnedDate)
	assertConsistent(t, store)
}

func TestBorrowBookErrors(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.BorrowBook(999, aliceLoan)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.BorrowBook(3, aliceLoan)
	require.ErrorIs(t, err, ErrInvalidState)
	b, _ := store.Book(3)
	assert.Equal(t, "John Smith", b.BorrowerName(), "failed borrow leaves loan alone")

	_, err = store.BorrowBook(1, LoanInput{Borrower: "Alice", BorrowDate: "01/01/2024", ReturnDate: "2024-01-31"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = store.BorrowBook(1, LoanInput{BorrowDate: "2024-01-01", ReturnDate: "2024-01-31"})
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Len(t, store.History(), 3)
	assertConsistent(t, store)
}

func TestReturnBookTwiceIsNoOp(t *testing.T) {
	store, storage := newStore(t)

	_, err := store.ReturnBook(5)
	require.NoError(t, err)
	historyAfterFirst := store.History()
	saved, _, err := storage.Load(CollectionHistory)
	require.NoError(t, err)

	_, err = store.ReturnBook(5)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, historyAfterFirst, store.History())

	savedAgain, _, err := storage.Load(CollectionHistory)
	require.NoError(t, err)
	assert.Equal(t, saved, savedAgain)

	returned := 0
	for _, h := range store.History() {
		if h.BookID == 5 && h.Returned {
			returned++
		}
	}
	assert.Equal(t, 1, returned)
}

func TestReturnBookNotFound(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.ReturnBook(42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReturnBookWithoutOpenEntryStillReleases(t *testing.T) {
	sapiens := SampleBooks()[2]
	store, _ := newStore(t, WithSeed([]Book{sapiens}, nil))

	book, err := store.ReturnBook(3)
	require.NoError(t, err)
	assert.True(t, book.Available())
	assert.Empty(t, store.History())
	assertConsistent(t, store)
}

func TestBookCyclesThroughStates(t *testing.T) {
	store, _ := newEmptyStore(t)
	b, err := store.AddBook(dune)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.BorrowBook(b.ID, aliceLoan)
		require.NoError(t, err, "cycle %d", i)
		_, err = store.ReturnBook(b.ID)
		require.NoError(t, err, "cycle %d", i)
	}
	history := store.History()
	require.Len(t, history, 3)
	for _, h := range history {
		assert.True(t, h.Returned)
	}
	assertConsistent(t, store)
}

// failingStorage loads nothing and refuses every write. It deliberately
// does not implement BatchSaver.
type failingStorage struct {
	err error
}

func (f failingStorage) Save(string, []byte) error { return f.err }

func (f failingStorage) Load(string) ([]byte, bool, error) { return nil, false, nil }

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	boom := errors.New("disk full")
	storage := failingStorage{err: boom}
	store, err := Open(storage)
	require.NoError(t, err)

	_, err = store.BorrowBook(1, aliceLoan)
	require.ErrorIs(t, err, boom)

	b, _ := store.Book(1)
	assert.True(t, b.Available())
	assert.Len(t, store.History(), 3)

	_, err = store.AddBook(dune)
	require.ErrorIs(t, err, boom)
	assert.Len(t, store.Books(), 6)
}
