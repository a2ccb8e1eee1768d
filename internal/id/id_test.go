package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for _, kind := range []Kind{User, Book, Review} {
		t.Run(string(kind), func(t *testing.T) {
			v, err := Generate(kind)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(v, string(kind)+"-"))
			assert.Len(t, strings.TrimPrefix(v, string(kind)+"-"), 21)
		})
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		v := MustGenerate(Review)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}
