package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/service"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/store/sqlite"
)

const testSecret = "api-test-secret-0123456789"

type testServer struct {
	server *Server
	api    humatest.TestAPI
	tokens *auth.TokenService
}

// setupTestServer creates a server over a temp sqlite store and an in-memory
// search index.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewBookIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService(auth.TokenOptions{Secret: testSecret})
	require.NoError(t, err)

	services := &Services{
		Auth:   service.NewAuthService(st, tokens, nil),
		Book:   service.NewBookService(st, st, index, nil),
		Review: service.NewReviewService(st, nil),
		Store:  st,
		Search: index,
	}

	server := NewServer(services, opts, nil)
	t.Cleanup(server.Close)

	return &testServer{
		server: server,
		api:    humatest.Wrap(t, server.API()),
		tokens: tokens,
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func assertError(t *testing.T, resp *httptest.ResponseRecorder, status int, code, message string) {
	t.Helper()
	require.Equal(t, status, resp.Code, resp.Body.String())
	body := decode[errorBody](t, resp)
	assert.Equal(t, code, body.Code)
	if message != "" {
		assert.Equal(t, message, body.Message)
	}
}

// signupAndLogin creates an account and returns the Cookie header carrying its token.
func (ts *testServer) signupAndLogin(t *testing.T, name, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/user/signup", map[string]any{
		"name": name, "email": email, "password": "pw",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/user/login", map[string]any{
		"email": email, "password": "pw",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	for _, c := range resp.Result().Cookies() {
		if c.Name == tokenCookieName {
			return "Cookie: " + tokenCookieName + "=" + c.Value
		}
	}
	t.Fatal("login did not set the token cookie")
	return ""
}

func (ts *testServer) addBook(t *testing.T, title, author, genre string) map[string]any {
	t.Helper()
	resp := ts.api.Post("/api/books/add", map[string]any{
		"title": title, "author": author, "genre": genre, "publishedYear": 1965,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[map[string]any](t, resp)
}

func TestGreeting(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, greeting, resp.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/nope")
	assertError(t, resp, http.StatusNotFound, "NOT_FOUND", "")
}

func TestReviewScenario(t *testing.T) {
	ts := setupTestServer(t, Options{})

	cookie := ts.signupAndLogin(t, "A", "a@x.com")
	book := ts.addBook(t, "Dune", "Frank Herbert", "Science Fiction")
	bookID := book["id"].(string)

	resp := ts.api.Post("/api/books/"+bookID+"/reviews", cookie, map[string]any{
		"rating": 5, "comment": "Great",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	review := decode[map[string]any](t, resp)
	assert.Equal(t, bookID, review["bookId"])
	assert.Equal(t, "A", review["userName"])

	resp = ts.api.Post("/api/books/"+bookID+"/reviews", cookie, map[string]any{
		"rating": 4, "comment": "Again",
	})
	assertError(t, resp, http.StatusInternalServerError, "DUPLICATE_REVIEW", "You already reviewed this book")

	resp = ts.api.Get("/api/books/" + bookID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	detail := decode[service.BookDetail](t, resp)
	assert.InDelta(t, 5.0, detail.AverageRating, 1e-9)
	assert.Equal(t, 1, detail.Book.ReviewCount)
	assert.Equal(t, 1, detail.Reviews.Total)
	assert.Equal(t, 1, detail.Reviews.CurrentPage)
	require.Len(t, detail.Reviews.Data, 1)
	assert.Equal(t, "A", detail.Reviews.Data[0].UserName)
}

func TestSignup(t *testing.T) {
	ts := setupTestServer(t, Options{})

	t.Run("incomplete", func(t *testing.T) {
		resp := ts.api.Post("/api/user/signup", map[string]any{"name": "A"})
		assertError(t, resp, http.StatusBadRequest, "VALIDATION", "Incomplete information!")
	})

	t.Run("created", func(t *testing.T) {
		resp := ts.api.Post("/api/user/signup", map[string]any{
			"name": "A", "email": "a@x.com", "password": "pw", "role": "admin",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, "User created successfully", decode[SuccessResponse](t, resp).Success)
	})

	t.Run("email in use", func(t *testing.T) {
		resp := ts.api.Post("/api/user/signup", map[string]any{
			"name": "B", "email": "A@X.com", "password": "other",
		})
		assertError(t, resp, http.StatusConflict, "ALREADY_EXISTS", "")
	})
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t, Options{CookieSecure: true})
	ts.signupAndLogin(t, "A", "a@x.com")

	t.Run("sets cookie", func(t *testing.T) {
		resp := ts.api.Post("/api/user/login", map[string]any{"email": "a@x.com", "password": "pw"})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "User logged in successfully!", decode[SuccessResponse](t, resp).Success)

		cookies := resp.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, tokenCookieName, c.Name)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int(auth.DefaultTokenDuration.Seconds()), c.MaxAge)

		ident, err := ts.tokens.Verify(c.Value)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", ident.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.api.Post("/api/user/login", map[string]any{"email": "a@x.com", "password": "nope"})
		assertError(t, resp, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		resp := ts.api.Post("/api/user/login", map[string]any{"email": "b@x.com", "password": "pw"})
		assertError(t, resp, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid credentials")
	})

	t.Run("incomplete", func(t *testing.T) {
		resp := ts.api.Post("/api/user/login", map[string]any{"email": "a@x.com"})
		assertError(t, resp, http.StatusBadRequest, "VALIDATION", "Incomplete information!")
	})
}

func TestMeAndLogout(t *testing.T) {
	ts := setupTestServer(t, Options{})
	cookie := ts.signupAndLogin(t, "A", "a@x.com")

	resp := ts.api.Get("/api/user/me")
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "")

	resp = ts.api.Get("/api/user/me", cookie)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	ident := decode[auth.Identity](t, resp)
	assert.Equal(t, "A", ident.Name)
	assert.Equal(t, "a@x.com", ident.Email)
	assert.NotEmpty(t, ident.ID)

	// Bearer tokens work as well as the cookie.
	token := strings.TrimPrefix(cookie, "Cookie: "+tokenCookieName+"=")
	resp = ts.api.Get("/api/user/me", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/user/logout", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestInvalidToken(t *testing.T) {
	bad := "Authorization: Bearer not-a-token"

	t.Run("lenient treats caller as anonymous", func(t *testing.T) {
		ts := setupTestServer(t, Options{})
		resp := ts.api.Get("/api/books", bad)
		assert.Equal(t, http.StatusOK, resp.Code)

		resp = ts.api.Get("/api/user/me", bad)
		assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "")
	})

	t.Run("strict rejects", func(t *testing.T) {
		ts := setupTestServer(t, Options{StrictTokens: true})
		resp := ts.api.Get("/api/books", bad)
		assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")

		resp = ts.api.Get("/api/books")
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestReviewRequiresIdentity(t *testing.T) {
	ts := setupTestServer(t, Options{})
	book := ts.addBook(t, "Dune", "Frank Herbert", "Science Fiction")

	resp := ts.api.Post("/api/books/"+book["id"].(string)+"/reviews", map[string]any{"rating": 5})
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "")

	resp = ts.api.Put("/api/reviews/whatever", map[string]any{"rating": 5})
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "")

	resp = ts.api.Delete("/api/reviews/whatever")
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "")
}

func TestReviewValidation(t *testing.T) {
	ts := setupTestServer(t, Options{})
	cookie := ts.signupAndLogin(t, "A", "a@x.com")
	book := ts.addBook(t, "Dune", "Frank Herbert", "Science Fiction")
	path := "/api/books/" + book["id"].(string) + "/reviews"

	resp := ts.api.Post(path, cookie, map[string]any{"rating": 9})
	assertError(t, resp, http.StatusBadRequest, "VALIDATION", "")

	resp = ts.api.Post(path, cookie, map[string]any{"rating": "five"})
	assertError(t, resp, http.StatusBadRequest, "VALIDATION", "")

	resp = ts.api.Post("/api/books/missing/reviews", cookie, map[string]any{"rating": 3})
	assertError(t, resp, http.StatusNotFound, "NOT_FOUND", "Book not found")
}

func TestReviewOwnership(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner := ts.signupAndLogin(t, "A", "a@x.com")
	other := ts.signupAndLogin(t, "B", "b@x.com")
	book := ts.addBook(t, "Dune", "Frank Herbert", "Science Fiction")
	bookID := book["id"].(string)

	resp := ts.api.Post("/api/books/"+bookID+"/reviews", owner, map[string]any{"rating": 3, "comment": "ok"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	reviewID := decode[map[string]any](t, resp)["id"].(string)

	resp = ts.api.Put("/api/reviews/"+reviewID, other, map[string]any{"rating": 1})
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "You are not authorized to update this review")

	resp = ts.api.Delete("/api/reviews/"+reviewID, other)
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", "You are not authorized to delete this review")

	resp = ts.api.Put("/api/reviews/"+reviewID, owner, map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[map[string]any](t, resp)
	assert.InDelta(t, 4, updated["rating"], 0)
	assert.Equal(t, "ok", updated["comment"])

	resp = ts.api.Delete("/api/reviews/"+reviewID, owner)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Review deleted successfully", decode[MessageResponse](t, resp).Message)

	resp = ts.api.Delete("/api/reviews/"+reviewID, owner)
	assertError(t, resp, http.StatusNotFound, "NOT_FOUND", "Review not found")

	resp = ts.api.Get("/api/books/" + bookID)
	require.Equal(t, http.StatusOK, resp.Code)
	detail := decode[service.BookDetail](t, resp)
	assert.Equal(t, 0, detail.Book.ReviewCount)
	assert.Zero(t, detail.AverageRating)
	assert.Empty(t, detail.Reviews.Data)
}

func TestBooks(t *testing.T) {
	ts := setupTestServer(t, Options{})
	for i := range 12 {
		author := "Ursula K. Le Guin"
		if i%2 == 1 {
			author = "Frank Herbert"
		}
		ts.addBook(t, fmt.Sprintf("Book %02d", i), author, "Fantasy")
	}

	t.Run("default page", func(t *testing.T) {
		resp := ts.api.Get("/api/books?limit=abc&page=-3")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		list := decode[service.BookList](t, resp)
		assert.Equal(t, 12, list.Total)
		assert.Equal(t, 1, list.CurrentPage)
		assert.Equal(t, 2, list.TotalPages)
		require.Len(t, list.Books, 10)
		assert.Equal(t, "Book 00", list.Books[0].Title)
	})

	t.Run("filtered page", func(t *testing.T) {
		resp := ts.api.Get("/api/books?author=le%20guin&page=2&limit=4")
		require.Equal(t, http.StatusOK, resp.Code)
		list := decode[service.BookList](t, resp)
		assert.Equal(t, 6, list.Total)
		assert.Equal(t, 2, list.CurrentPage)
		assert.Equal(t, 2, list.TotalPages)
		require.Len(t, list.Books, 2)
		assert.Equal(t, "Book 08", list.Books[0].Title)
	})

	t.Run("huge page number", func(t *testing.T) {
		resp := ts.api.Get("/api/books?page=922337203685477581&limit=100")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		list := decode[service.BookList](t, resp)
		assert.Equal(t, 12, list.Total)
		assert.Equal(t, store.MaxPageNumber, list.CurrentPage)
		assert.Empty(t, list.Books)
	})

	t.Run("search", func(t *testing.T) {
		resp := ts.api.Get("/api/books/search?author=HERBERT&title=book%201")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		books := decode[[]map[string]any](t, resp)
		require.Len(t, books, 1)
		assert.Equal(t, "Book 11", books[0]["title"])
	})

	t.Run("search without terms", func(t *testing.T) {
		resp := ts.api.Get("/api/books/search")
		assertError(t, resp, http.StatusBadRequest, "VALIDATION", "Please provide a title or author to search")
	})

	t.Run("search without matches", func(t *testing.T) {
		resp := ts.api.Get("/api/books/search?title=zzz")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, "[]", resp.Body.String())
	})

	t.Run("missing book", func(t *testing.T) {
		resp := ts.api.Get("/api/books/missing")
		assertError(t, resp, http.StatusNotFound, "NOT_FOUND", "Book not found")
	})

	t.Run("invalid book", func(t *testing.T) {
		resp := ts.api.Post("/api/books/add", map[string]any{"title": "  ", "author": "X"})
		assertError(t, resp, http.StatusBadRequest, "VALIDATION", "")
	})
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{AuthRateLimit: 1, AuthRateBurst: 2})

	body := map[string]any{"email": "a@x.com", "password": "pw"}
	for range 2 {
		resp := ts.api.Post("/api/user/login", body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	}

	resp := ts.api.Post("/api/user/login", body)
	assertError(t, resp, http.StatusTooManyRequests, "RATE_LIMITED", "")

	// Other routes are not limited.
	resp = ts.api.Get("/api/books")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.addBook(t, "Dune", "Frank Herbert", "Science Fiction")

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	health := decode[HealthResponse](t, resp)
	assert.Equal(t, statusHealthy, health.Status)
	assert.Equal(t, statusHealthy, health.Components["store"].Status)
	assert.Equal(t, "1 documents", health.Components["search"].Message)
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t, Options{AllowedOrigins: []string{"https://books.example"}})

	resp := ts.api.Get("/api/books", "Origin: https://books.example")
	assert.Equal(t, "https://books.example", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))

	resp = ts.api.Get("/api/books", "Origin: https://evil.example")
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
