package store

import (
	"strings"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/normalize"
)

// BookFilter narrows ListBooks. Each non-empty field is a case-insensitive
// substring match; fields are ANDed.
type BookFilter struct {
	Author string
	Genre  string
}

// Matches reports whether b satisfies the filter.
func (f BookFilter) Matches(b *domain.Book) bool {
	return contains(b.Author, f.Author) && contains(b.Genre, f.Genre)
}

// BookQuery drives SearchBooks. Each non-empty field is a case-insensitive
// substring match; fields are ANDed.
type BookQuery struct {
	Title  string
	Author string
}

// Empty reports whether neither field is set.
func (q BookQuery) Empty() bool {
	return strings.TrimSpace(q.Title) == "" && strings.TrimSpace(q.Author) == ""
}

// Matches reports whether b satisfies the query.
func (q BookQuery) Matches(b *domain.Book) bool {
	return contains(b.Title, q.Title) && contains(b.Author, q.Author)
}

func contains(value, term string) bool {
	term = normalize.Fold(term)
	if term == "" {
		return true
	}
	return strings.Contains(normalize.Fold(value), term)
}
