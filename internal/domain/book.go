package domain

import (
	"strings"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/id"
)

// Book is a catalog entry. ReviewCount always equals the number of reviews
// that reference the book.
type Book struct {
	Timestamps
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear,omitempty"`
	ReviewCount   int    `json:"reviewCount"`
}

// NewBook builds a book with trimmed title and author.
func NewBook(title, author, genre string, publishedYear int, now time.Time) (*Book, error) {
	b := &Book{
		Title:         strings.TrimSpace(title),
		Author:        strings.TrimSpace(author),
		Genre:         strings.TrimSpace(genre),
		PublishedYear: publishedYear,
	}
	if b.Title == "" || b.Author == "" || b.Genre == "" {
		return nil, errors.Validation("title, author and genre are required")
	}
	if publishedYear < 0 {
		return nil, errors.Validation("publishedYear must not be negative")
	}

	bookID, err := id.Generate(id.Book)
	if err != nil {
		return nil, err
	}
	b.ID = bookID
	b.InitTimestamps(now)
	return b, nil
}
