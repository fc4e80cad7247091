package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/navigation"
	"storefront/internal/scanner"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct{}

func (stubProvider) SignIn(ctx context.Context) (*domain.UserInfo, string, error) {
	return &domain.UserInfo{ID: "1087", Email: "asha@example.com"}, "ya29.a0", nil
}

func (stubProvider) CurrentUser(ctx context.Context, token string) (*domain.UserInfo, error) {
	return &domain.UserInfo{ID: "1087"}, nil
}

func (stubProvider) SignOut(ctx context.Context, token string) error { return nil }

type memoryTokens struct{ token string }

func (m *memoryTokens) SaveToken(ctx context.Context, token string) error {
	m.token = token
	return nil
}

func (m *memoryTokens) Token(ctx context.Context) (string, bool) { return m.token, m.token != "" }

func (m *memoryTokens) RemoveToken(ctx context.Context) error {
	m.token = ""
	return nil
}

type memoryStore struct{ items []domain.CartItem }

func (m *memoryStore) Load(ctx context.Context) []domain.CartItem { return m.items }

func (m *memoryStore) Save(ctx context.Context, items []domain.CartItem) error {
	m.items = items
	return nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.items = nil
	return nil
}

type stubCatalog struct{}

func (stubCatalog) Search(ctx context.Context, query string, page, pageSize int) (*catalog.Page, error) {
	return &catalog.Page{Items: []domain.Product{{ID: "101", Name: "Apple iPhone 15 Pro"}}, Page: page, TotalPages: 1, TotalRecords: 1}, nil
}

func (stubCatalog) Lookup(ctx context.Context, code string) (*domain.Product, error) {
	return nil, catalog.ErrNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "0", Env: "development"},
		Catalog: config.CatalogConfig{PageSize: 10},
	}
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	logger := zap.NewNop()

	session := auth.NewSession(stubProvider{}, &memoryTokens{}, logger)
	browser := catalog.NewBrowser(stubCatalog{}, 10, time.Millisecond, logger)
	t.Cleanup(browser.Close)

	return Deps{
		Session:  session,
		Nav:      navigation.NewStack(session, logger),
		Cart:     cart.NewService(&memoryStore{}, &memoryStore{}, logger),
		Searcher: stubCatalog{},
		Browser:  browser,
		Scanner:  scanner.New(stubCatalog{}, scanner.DefaultCooldown, logger),
	}
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), testDeps(t))

	w := serve(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","authenticated":false}`, w.Body.String())
}

func TestRoutesAreGatedUntilSignIn(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), testDeps(t))

	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/products").Code)

	w := serve(router, http.MethodPost, "/api/session/sign-in")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"route":"Products"`)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/products").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/cart").Code)

	serve(router, http.MethodPost, "/api/session/sign-out")
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/cart").Code)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), testDeps(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalogRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Searches: 2, Lookups: 1, Window: time.Minute}

	deps := testDeps(t)
	deps.Redis = client
	router := NewRouter(cfg, zap.NewNop(), deps)

	serve(router, http.MethodPost, "/api/session/sign-in")

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/products").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/products/browse/refresh").Code)
	require.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/api/products").Code)

	// reading the loaded list and the cart never reach the catalog
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/products/browse").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/cart").Code)

	// lookups have their own budget
	lookup := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/products/lookup", strings.NewReader(`{"code":"5555500000012"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusNotFound, lookup())
	require.Equal(t, http.StatusTooManyRequests, lookup())

	require.ElementsMatch(t, []string{
		"storefront:ratelimit:search:1087",
		"storefront:ratelimit:lookup:1087",
	}, mr.Keys())
}
