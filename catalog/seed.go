package catalog

// SampleBooks returns the catalog a fresh installation starts with.
func SampleBooks() []Book {
	return []Book{
		{ID: 1, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Category: CategoryFiction, ISBN: "9780743273565", Published: 1925, Status: StatusAvailable},
		{ID: 2, Title: "A Brief History of Time", Author: "Stephen Hawking", Category: CategoryScience, ISBN: "9780553380163", Published: 1988, Status: StatusAvailable},
		{
			ID: 3, Title: "Sapiens: A Brief History of Humankind", Author: "Yuval Noah Harari", Category: CategoryHistory,
			ISBN: "9780062316097", Published: 2011, Status: StatusBorrowed,
			Borrower: strPtr("John Smith"), BorrowDate: strPtr("2023-05-15"), ReturnDate: strPtr("2023-06-15"),
		},
		{ID: 4, Title: "Steve Jobs", Author: "Walter Isaacson", Category: CategoryBiography, ISBN: "9781451648539", Published: 2011, Status: StatusAvailable},
		{
			ID: 5, Title: "Educated", Author: "Tara Westover", Category: CategoryNonFiction,
			ISBN: "9780399590504", Published: 2018, Status: StatusBorrowed,
			Borrower: strPtr("Emily Johnson"), BorrowDate: strPtr("2023-06-01"), ReturnDate: strPtr("2023-06-29"),
		},
		{ID: 6, Title: "The Immortal Life of Henrietta Lacks", Author: "Rebecca Skloot", Category: CategoryScience, ISBN: "9781400052172", Published: 2010, Status: StatusAvailable},
	}
}

// SampleHistory returns the loan log matching SampleBooks, most recent first.
func SampleHistory() []HistoryEntry {
	return []HistoryEntry{
		{ID: 1, BookID: 3, BookTitle: "Sapiens: A Brief History of Humankind", Borrower: "John Smith", BorrowDate: "2023-05-15", ReturnDate: "2023-06-15"},
		{ID: 2, BookID: 5, BookTitle: "Educated", Borrower: "Emily Johnson", BorrowDate: "2023-06-01", ReturnDate: "2023-06-29"},
		{
			ID: 3, BookID: 2, BookTitle: "A Brief History of Time", Borrower: "Michael Brown", BorrowDate: "2023-04-10", ReturnDate: "2023-05-10",
			Returned: true, ReturnedDate: strPtr("2023-05-05"),
		},
	}
}
