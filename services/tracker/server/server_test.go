package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"codetrack-backend/lib/telemetry"
	"codetrack-backend/services/auth"
	"codetrack-backend/services/tracker"
	"codetrack-backend/services/tracker/scrape"
	"codetrack-backend/services/tracker/store"

	"github.com/stretchr/testify/require"
)

type recordingScraper struct {
	calls int
}

func (s *recordingScraper) Platform() store.Platform { return store.PlatformGithub }
func (s *recordingScraper) Host() string             { return "github.com" }

func (s *recordingScraper) Fetch(ctx context.Context, username string) (store.Stats, error) {
	s.calls++
	return &store.GithubStats{Followers: 1}, nil
}

type testEnv struct {
	mux      *http.ServeMux
	verifier *auth.Verifier
	store    store.Store
	scraper  *recordingScraper
	record   *store.StudentRecord
}

func setupServer(t *testing.T) testEnv {
	t.Helper()
	cleanup := telemetry.SetupForTesting(t, "test:tracker/server")
	t.Cleanup(cleanup)

	st := store.NewMemoryStore()
	record := &store.StudentRecord{
		RollNo:   "21CS001",
		Email:    "alice@example.edu",
		IsActive: true,
		PlatformLinks: map[store.Platform]string{
			store.PlatformGithub: "https://github.com/alice",
		},
	}
	require.NoError(t, st.Save(context.Background(), record))

	scraper := &recordingScraper{}
	service := tracker.NewService(st, map[store.Platform]scrape.Scraper{
		store.PlatformGithub: scraper,
	}, nil, nil, tracker.Config{ScrapeIntervalMs: 1, RetryAttempts: 1, RetryDelayMs: 1})

	verifier, err := auth.NewVerifier(auth.Config{Secret: "test-secret"})
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewServer(service, verifier, nil).Register(mux)

	return testEnv{mux: mux, verifier: verifier, store: st, scraper: scraper, record: record}
}

func (e testEnv) request(t *testing.T, method, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	e.mux.ServeHTTP(recorder, req)

	var body envelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	return recorder, body
}

func (e testEnv) token(t *testing.T, studentID string) string {
	t.Helper()
	token, err := e.verifier.Sign(auth.Identity{StudentID: studentID, Email: "x@example.edu"})
	require.NoError(t, err)
	return token
}

func TestGetMe(t *testing.T) {
	env := setupServer(t)

	recorder, body := env.request(t, "GET", "/api/v1/students/me", env.token(t, env.record.ID.Hex()))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, body.Success)
	require.NotNil(t, body.Data)
}

func TestGetMeDeactivated(t *testing.T) {
	env := setupServer(t)
	require.NoError(t, env.store.Deactivate(context.Background(), env.record.ID.Hex()))

	token := env.token(t, env.record.ID.Hex())
	recorder, body := env.request(t, "GET", "/api/v1/students/me", token)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.False(t, body.Success)

	// refreshing a deactivated record is equally a 404
	recorder, body = env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh", token)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.False(t, body.Success)
	require.Zero(t, env.scraper.calls)
}

func TestRefreshRequiresAuth(t *testing.T) {
	env := setupServer(t)

	recorder, body := env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh", "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.False(t, body.Success)
	require.Zero(t, env.scraper.calls)
}

func TestRefreshIdentityMismatch(t *testing.T) {
	env := setupServer(t)

	// authenticated as a different student
	token := env.token(t, "000000000000000000000099")
	recorder, body := env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh/codechef", token)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.False(t, body.Success)

	// rejected before any scraper ran; lastScrapedAt untouched
	require.Zero(t, env.scraper.calls)
	saved, err := env.store.GetByID(context.Background(), env.record.ID.Hex())
	require.NoError(t, err)
	require.True(t, saved.LastScrapedAt.IsZero())
}

func TestRefreshReportsPartialResults(t *testing.T) {
	env := setupServer(t)

	token := env.token(t, env.record.ID.Hex())
	recorder, body := env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, body.Success)
	require.NotNil(t, body.ScrapingResults)
	require.Equal(t, []store.Platform{store.PlatformGithub}, body.ScrapingResults.Successful)
	require.Len(t, body.ScrapingResults.Skipped, 4)

	// a second refresh inside the freshness window is declined politely
	recorder, body = env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, body.Success)
	require.Nil(t, body.ScrapingResults)
	require.Equal(t, 1, env.scraper.calls)

	// unless forced
	recorder, body = env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh?force=true", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, body.Success)
	require.NotNil(t, body.ScrapingResults)
	require.Equal(t, 2, env.scraper.calls)
}

func TestRefreshUnknownPlatform(t *testing.T) {
	env := setupServer(t)

	token := env.token(t, env.record.ID.Hex())
	recorder, body := env.request(t, "POST", "/api/v1/students/"+env.record.ID.Hex()+"/refresh/orkut", token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.False(t, body.Success)
}
