package catalog

import "fmt"

// Inconsistency describes a book whose record and loan history disagree.
type Inconsistency struct {
	BookID int64
	Reason string
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("book %d: %s", i.BookID, i.Reason)
}

// Check verifies that every book's status agrees with its loan fields and
// with the number of open history entries referring to it.
func (s *Store) Check() []Inconsistency {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := make(map[int64]int)
	for _, h := range s.history {
		if h.Open() {
			open[h.BookID]++
		}
	}

	var found []Inconsistency
	report := func(id int64, format string, args ...any) {
		found = append(found, Inconsistency{BookID: id, Reason: fmt.Sprintf(format, args...)})
	}

	known := make(map[int64]bool, len(s.books))
	for _, b := range s.books {
		known[b.ID] = true
		loanFields := 0
		for _, f := range []*string{b.Borrower, b.BorrowDate, b.ReturnDate} {
			if f != nil {
				loanFields++
			}
		}

		switch b.Status {
		case StatusBorrowed:
			if loanFields != 3 {
				report(b.ID, "borrowed but only %d of 3 loan fields set", loanFields)
			}
			if open[b.ID] != 1 {
				report(b.ID, "borrowed with %d open history entries", open[b.ID])
			}
		case StatusAvailable:
			if loanFields != 0 {
				report(b.ID, "available but %d loan fields set", loanFields)
			}
			if open[b.ID] != 0 {
				report(b.ID, "available with %d open history entries", open[b.ID])
			}
		default:
			report(b.ID, "unknown status %q", b.Status)
		}
	}

	for _, h := range s.history {
		if h.Open() && !known[h.BookID] {
			report(h.BookID, "open history entry %d refers to a missing book", h.ID)
		}
	}
	return found
}
