// Package main seeds the configured store with demo users, books and reviews.
//
// It reads the same configuration as the server:
//
//	go run ./cmd/seed
//	STORE_DRIVER=badger go run ./cmd/seed -reviews=3
//	go run ./cmd/seed -reviews=1 -- -store badger -data-path /tmp/books
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/di/providers"
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

const demoPassword = "password123"

var demoUsers = []struct{ name, email string }{
	{"Alice Reader", "alice@example.com"},
	{"Bob Bookworm", "bob@example.com"},
	{"Carol Critic", "carol@example.com"},
	{"Dan Skimmer", "dan@example.com"},
}

var demoBooks = []struct {
	title, author, genre string
	year                 int
}{
	{"Dune", "Frank Herbert", "Science Fiction", 1965},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction", 1969},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "Fantasy", 1968},
	{"The Hobbit", "J.R.R. Tolkien", "Fantasy", 1937},
	{"Pride and Prejudice", "Jane Austen", "Romance", 1813},
	{"The Name of the Rose", "Umberto Eco", "Mystery", 1980},
	{"Beloved", "Toni Morrison", "Literary Fiction", 1987},
	{"Neuromancer", "William Gibson", "Science Fiction", 1984},
}

var comments = []string{
	"Couldn't put it down.",
	"Slow start, strong finish.",
	"Not for me.",
	"A classic for a reason.",
	"Re-read it every few years.",
	"",
}

func main() {
	reviewsPerBook := flag.Int("reviews", 2, "Reviews to add per book (at most one per demo user)")
	flag.Parse()

	cfg, err := config.Load(flag.Args())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})

	st, err := providers.OpenStore(cfg, lg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now()

	users := make([]*domain.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		u, err := ensureUser(ctx, st, du.name, du.email, now)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", du.email, err)
		}
		users = append(users, u)
	}
	fmt.Printf("Users ready: %d (password %q)\n", len(users), demoPassword)

	rng := rand.New(rand.NewPCG(uint64(now.UnixNano()), 0))
	created := 0
	for i, demo := range demoBooks {
		book, err := domain.NewBook(demo.title, demo.author, demo.genre, demo.year, now.Add(time.Duration(i)*time.Millisecond))
		if err != nil {
			log.Fatalf("Invalid demo book %q: %v", demo.title, err)
		}
		if err := st.CreateBook(ctx, book); err != nil {
			log.Fatalf("Failed to create book %q: %v", demo.title, err)
		}

		for j, reviewer := range rng.Perm(len(users))[:max(0, min(*reviewsPerBook, len(users)))] {
			review, err := domain.NewReview(book.ID, users[reviewer].ID, 1+rng.IntN(5), comments[rng.IntN(len(comments))], now.Add(time.Duration(j)*time.Second))
			if err != nil {
				log.Fatalf("Invalid demo review: %v", err)
			}
			if err := st.CreateReview(ctx, review); err != nil {
				log.Fatalf("Failed to review %q: %v", demo.title, err)
			}
			created++
		}
		fmt.Printf("  %-28s %s\n", book.Title, book.ID)
	}

	fmt.Printf("Seeded %d books and %d reviews into the %s store\n", len(demoBooks), created, cfg.Storage.Driver)
}

// ensureUser returns the user with email, creating it when missing.
func ensureUser(ctx context.Context, st store.Store, name, email string, now time.Time) (*domain.User, error) {
	existing, err := st.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	u, err := domain.NewUser(name, email, demoPassword, now)
	if err != nil {
		return nil, err
	}
	if err := st.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
