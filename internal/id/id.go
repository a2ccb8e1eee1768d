// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind is the prefix that marks what an identifier refers to.
type Kind string

// Identifier kinds.
const (
	User   Kind = "usr"
	Book   Kind = "book"
	Review Kind = "rev"
)

// Generate creates an identifier of the form "<kind>-<nanoid>",
// e.g. "book-V1StGXR8_Z5jdHi6B-myT".
func Generate(kind Kind) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return string(kind) + "-" + n, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(kind Kind) string {
	v, err := Generate(kind)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}
