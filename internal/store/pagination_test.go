package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name                  string
		number, limit, defLim int
		want                  Page
	}{
		{"defaults", 0, 0, 5, Page{Number: 1, Limit: 5}},
		{"negative", -3, -1, 10, Page{Number: 1, Limit: 10}},
		{"explicit", 3, 20, 10, Page{Number: 3, Limit: 20}},
		{"capped", 1, 1000, 10, Page{Number: 1, Limit: MaxPageLimit}},
		{"zero default falls back", 1, 0, 0, Page{Number: 1, Limit: DefaultPageLimit}},
		{"huge number clamped", math.MaxInt, 10, 10, Page{Number: MaxPageNumber, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPage(tt.number, tt.limit, tt.defLim))
		})
	}
}

func TestPage_OffsetAndTotalPages(t *testing.T) {
	p := Page{Number: 3, Limit: 5}
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(5))
	assert.Equal(t, 2, p.TotalPages(6))
	assert.Equal(t, 3, p.TotalPages(15))
}

func TestPage_OffsetNeverOverflows(t *testing.T) {
	clamped := NewPage(math.MaxInt, MaxPageLimit, 10)
	assert.Equal(t, (MaxPageNumber-1)*MaxPageLimit, clamped.Offset())
	assert.Positive(t, clamped.Offset())

	raw := Page{Number: math.MaxInt, Limit: 10}
	assert.Equal(t, math.MaxInt, raw.Offset())
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Slice(items, Page{Number: 1, Limit: 2}))
	assert.Equal(t, []int{5}, Slice(items, Page{Number: 3, Limit: 2}))
	assert.Equal(t, []int{}, Slice(items, Page{Number: 4, Limit: 2}))
	assert.Equal(t, []int{}, Slice([]int(nil), Page{Number: 1, Limit: 2}))
	assert.Equal(t, []int{}, Slice(items, Page{Number: math.MaxInt, Limit: 10}))
	assert.Equal(t, []int{}, Slice(items, NewPage(math.MaxInt, 10, 10)))
}
