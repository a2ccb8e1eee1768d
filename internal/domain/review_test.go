package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/errors"
)

func TestNewReview_RatingBounds(t *testing.T) {
	tests := []struct {
		rating int
		valid  bool
	}{
		{0, false},
		{1, true},
		{3, true},
		{5, true},
		{6, false},
		{-1, false},
	}

	for _, tt := range tests {
		r, err := NewReview("book-1", "usr-1", tt.rating, "", time.Now())
		if tt.valid {
			require.NoError(t, err, "rating %d", tt.rating)
			assert.Equal(t, tt.rating, r.Rating)
		} else {
			assert.ErrorIs(t, err, errors.ErrValidation, "rating %d", tt.rating)
		}
	}
}

func TestReview_OwnedBy(t *testing.T) {
	r := &Review{UserID: "usr-1"}

	assert.True(t, r.OwnedBy("usr-1"))
	assert.False(t, r.OwnedBy("usr-2"))
	assert.False(t, r.OwnedBy(""))
}

func TestNewBook_TrimsAndRequires(t *testing.T) {
	b, err := NewBook("  Dune ", " Frank Herbert ", "Sci-Fi", 1965, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "Frank Herbert", b.Author)
	assert.Equal(t, 0, b.ReviewCount)

	_, err = NewBook("Dune", "Frank Herbert", "", 1965, time.Now())
	assert.ErrorIs(t, err, errors.ErrValidation)
}
