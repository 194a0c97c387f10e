package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"library-catalog/catalog"
	"library-catalog/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBooks(t *testing.T) {
	books, err := readBooks(strings.NewReader(`[
		{"title": "Dune", "author": "Frank Herbert", "category": "fiction", "isbn": "9780441013593", "published": 1965},
		{"title": "Cosmos", "author": "Carl Sagan", "category": "science"}
	]`))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, catalog.CategoryFiction, books[0].Category)
	assert.Equal(t, 1965, books[0].Published)
	assert.Equal(t, "Carl Sagan", books[1].Author)
}

func TestReadBooksRejectsMalformedJSON(t *testing.T) {
	_, err := readBooks(strings.NewReader(`{"title": "not an array"}`))
	require.Error(t, err)
}

func TestImportWithReset(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")
	file := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"title": "Dune", "author": "Frank Herbert", "category": "fiction", "published": 1965},
		{"title": "Untitled", "author": "", "category": "fiction"}
	]`), 0o644))

	cmd := newImportCmd(config.Config{DBPath: dbPath})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--reset", file})

	err := cmd.Execute()
	require.Error(t, err, "one record has no author")
	assert.Contains(t, out.String(), "Successfully imported: 1 books")
	assert.Contains(t, out.String(), "Errors: 1")

	storage, err := catalog.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	store, err := catalog.Open(storage)
	require.NoError(t, err)

	books := store.Books()
	require.Len(t, books, 1, "reset must not leave the sample catalog behind")
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, catalog.StatusAvailable, books[0].Status)
}

func TestImportSummaryKeepsMultiByteTitlesIntact(t *testing.T) {
	storage := catalog.NewMemoryStorage()
	store, err := catalog.Open(storage, catalog.WithSeed(nil, nil))
	require.NoError(t, err)

	title := strings.Repeat("Крейцерова соната ", 4)
	require.Greater(t, utf8.RuneCountInString(title), 50)

	var out bytes.Buffer
	require.NoError(t, importBooks(&out, store, []catalog.BookInput{
		{Title: title, Author: "Лев Толстой", Category: catalog.CategoryFiction},
	}))

	assert.True(t, utf8.Valid(out.Bytes()))
	assert.Contains(t, out.String(), string([]rune(title)[:47])+"...")
}

func TestTruncateStringCountsRunes(t *testing.T) {
	assert.Equal(t, "Dune", truncateString("Dune", 10))
	assert.Equal(t, "Ærøsk...", truncateString("Ærøskøbing Tales", 8))
	assert.Equal(t, "Жук", truncateString("Жуковский", 3))
}
