package catalog

import "strings"

// StatusFilter mirrors the two independent status toggles. A book passes when
// the toggle for its status is on; with both off nothing passes.
type StatusFilter struct {
	Available bool
	Borrowed  bool
}

// AllStatuses lets every book through.
var AllStatuses = StatusFilter{Available: true, Borrowed: true}

// Allows reports whether books in status s pass the filter.
func (f StatusFilter) Allows(s Status) bool {
	switch s {
	case StatusAvailable:
		return f.Available
	case StatusBorrowed:
		return f.Borrowed
	default:
		return false
	}
}

// Query selects books from the catalog. The zero Category behaves like
// CategoryAll.
type Query struct {
	Search   string
	Category Category
	Statuses StatusFilter
}

// Matches reports whether b satisfies every criterion of q.
func (q Query) Matches(b Book) bool {
	term := strings.ToLower(q.Search)
	if !strings.Contains(strings.ToLower(b.Title), term) &&
		!strings.Contains(strings.ToLower(b.Author), term) {
		return false
	}
	if q.Category != "" && q.Category != CategoryAll && b.Category != q.Category {
		return false
	}
	return q.Statuses.Allows(b.Status)
}

func filterBooks(books []Book, q Query) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if q.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}
