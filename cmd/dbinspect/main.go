// Package main prints a summary of the configured store and checks that
// every book's review count matches its stored reviews.
//
//	go run ./cmd/dbinspect
//	STORE_DRIVER=mongo go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/di/providers"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run inspects the store and returns the process exit code. The store is
// closed before run returns on every path.
func run(args []string, out io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	lg := logger.New(logger.Config{Level: logger.ParseLevel("warn"), Environment: cfg.App.Environment})

	st, err := providers.OpenStore(cfg, lg)
	if err != nil {
		log.Printf("Failed to open store: %v", err)
		return 1
	}
	defer st.Close()

	ctx := context.Background()

	fmt.Fprintln(out, "=== Store Inspection ===")
	fmt.Fprintf(out, "Driver: %s\n\n", cfg.Storage.Driver)

	books, err := st.SearchBooks(ctx, store.BookQuery{})
	if err != nil {
		log.Printf("Failed to load books: %v", err)
		return 1
	}

	totalReviews := 0
	mismatched := 0
	for _, b := range books {
		_, stored, err := st.ListReviews(ctx, b.ID, store.NewPage(1, 1, 1))
		if err != nil {
			log.Printf("Failed to count reviews for %s: %v", b.ID, err)
			return 1
		}
		avg, err := st.AverageRating(ctx, b.ID)
		if err != nil {
			log.Printf("Failed to average ratings for %s: %v", b.ID, err)
			return 1
		}
		totalReviews += stored

		flag := ""
		if stored != b.ReviewCount {
			mismatched++
			flag = fmt.Sprintf("  MISMATCH: %d stored", stored)
		}
		fmt.Fprintf(out, "  %-30.30s %-22.22s reviews=%-3d avg=%.2f%s\n", b.Title, b.Author, b.ReviewCount, avg, flag)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Books:   %d\n", len(books))
	fmt.Fprintf(out, "Reviews: %d\n", totalReviews)
	if mismatched > 0 {
		fmt.Fprintf(out, "\n%d books have a review count that does not match their reviews\n", mismatched)
		return 1
	}
	return 0
}
