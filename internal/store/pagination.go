package store

import "math"

// Pagination limits.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// MaxPageNumber keeps (Number-1)*Limit within an int for any limit up
	// to MaxPageLimit.
	MaxPageNumber = math.MaxInt / MaxPageLimit
)

// Page selects a window of an ordered result set. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// NewPage returns a normalized page; non-positive values fall back to page 1
// and defaultLimit, the limit is capped at MaxPageLimit and the number at
// MaxPageNumber.
func NewPage(number, limit, defaultLimit int) Page {
	p := Page{Number: number, Limit: limit}
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt instead of overflowing.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// TotalPages returns ceil(total / limit).
func (p Page) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Slice applies the page window to an in-memory result set.
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + max(0, min(p.Limit, len(items)-start))
	return items[start:end]
}
