package search

import (
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/normalize"
)

const (
	fieldTitle  = "title"
	fieldAuthor = "author"
)

// bookDocument is the indexed form of a book.
func bookDocument(b *domain.Book) map[string]any {
	return map[string]any{
		fieldTitle:  normalize.Fold(b.Title),
		fieldAuthor: normalize.Fold(b.Author),
	}
}
