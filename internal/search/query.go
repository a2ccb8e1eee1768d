package search

import (
	"fmt"
	"regexp"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/bookreviewapp/bookreview-server/internal/normalize"
)

// ErrEmptyQuery is returned when neither title nor author is given.
var ErrEmptyQuery = fmt.Errorf("search: empty query")

// SearchBooks returns the IDs of books whose title contains title and whose
// author contains author, ignoring case. Empty terms are not constrained,
// but at least one must be set.
func (s *BookIndex) SearchBooks(title, author string) ([]string, error) {
	var conjuncts []query.Query
	if q := containsQuery(fieldTitle, title); q != nil {
		conjuncts = append(conjuncts, q)
	}
	if q := containsQuery(fieldAuthor, author); q != nil {
		conjuncts = append(conjuncts, q)
	}
	if len(conjuncts) == 0 {
		return nil, ErrEmptyQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conjuncts...), int(total), 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// containsQuery matches keyword terms that contain term literally. Regexp
// metacharacters in user input, including wildcard characters, are escaped.
func containsQuery(field, term string) query.Query {
	term = normalize.Fold(term)
	if term == "" {
		return nil
	}
	q := bleve.NewRegexpQuery(".*" + regexp.QuoteMeta(term) + ".*")
	q.SetField(field)
	return q
}
