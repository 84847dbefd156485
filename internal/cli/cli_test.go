package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competecore/competecore/internal/api"
	"github.com/competecore/competecore/internal/factory"
	"github.com/competecore/competecore/internal/testutil"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:             testutil.NopLogger(),
		AuthService:        app.AuthService,
		MatchesController:  app.MatchesController,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
	}))
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, serverURL, tokenFile string, args ...string) error {
	t.Helper()

	cmd := NewRootCmd()
	cmd.SetArgs(append([]string{"--server", serverURL, "--token-file", tokenFile, "--output", "json"}, args...))
	cmd.SetOut(os.Stderr)
	return cmd.Execute()
}

func TestClientDecodesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"MATCH_NOT_OPEN","message":"Match is no longer open"}}`))
	}))
	defer server.Close()

	err := NewClient(server.URL, "").Post("/api/v1/matches/x/join", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "MATCH_NOT_OPEN", apiErr.Code)
	assert.Equal(t, "Match is no longer open (MATCH_NOT_OPEN)", err.Error())
}

func TestClientPlainErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewClient(server.URL, "").Get("/anything", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestConfigTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "nested", "token")}

	require.NoError(t, c.SaveToken("abc.def.ghi"))

	loaded := &Config{TokenFile: c.TokenFile}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc.def.ghi", loaded.Token)

	require.NoError(t, loaded.ClearToken())
	assert.Empty(t, loaded.Token)
	_, err := os.Stat(c.TokenFile)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	require.NoError(t, loaded.ClearToken())
}

func TestLoadTokenPrefersExplicitToken(t *testing.T) {
	c := &Config{Token: "explicit", TokenFile: filepath.Join(t.TempDir(), "token")}
	require.NoError(t, os.WriteFile(c.TokenFile, []byte("from-file"), 0600))

	require.NoError(t, c.LoadToken())
	assert.Equal(t, "explicit", c.Token)
}

func TestSignupValidatesLocally(t *testing.T) {
	// Nothing listens here; validation must fail before any request
	tokenFile := filepath.Join(t.TempDir(), "token")

	err := run(t, "http://127.0.0.1:1", tokenFile, "auth", "signup",
		"--email", "alice@example.com", "--user", "al", "--pass", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")

	err = run(t, "http://127.0.0.1:1", tokenFile, "auth", "signup",
		"--email", "alice@example.com", "--user", "alice", "--pass", "secret123", "--confirm", "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestCreateMatchValidatesLocally(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")

	err := run(t, "http://127.0.0.1:1", tokenFile, "match", "create", "--type", "wager")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wager_amount")

	err = run(t, "http://127.0.0.1:1", tokenFile, "match", "create", "--mode", "capture-the-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game_mode")
}

func TestSignupSavesAndLogoutClearsToken(t *testing.T) {
	server := startServer(t)
	tokenFile := filepath.Join(t.TempDir(), "token")

	err := run(t, server.URL, tokenFile, "auth", "signup",
		"--email", "alice@example.com", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err)

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, run(t, server.URL, tokenFile, "user", "me"))
	require.NoError(t, run(t, server.URL, tokenFile, "auth", "logout"))

	_, err = os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err))

	err = run(t, server.URL, tokenFile, "user", "me")
	assert.Error(t, err)
}

func TestMatchJoinRequiresIDOrCode(t *testing.T) {
	server := startServer(t)
	tokenFile := filepath.Join(t.TempDir(), "token")

	err := run(t, server.URL, tokenFile, "match", "join")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match id or --code")
}

func TestSummarizeEvent(t *testing.T) {
	created := `{"type":"match_created","match":{"created_by_username":"alice","type":"casual","game_mode":"snd","invite_code":"ABC234"}}`
	assert.Equal(t, "alice posted casual snd (code ABC234)", summarizeEvent("match_created", created))

	registered := `{"type":"user_registered","user":{"username":"bob"}}`
	assert.Equal(t, "bob signed up", summarizeEvent("user_registered", registered))

	assert.Equal(t, "not json", summarizeEvent("other", "not json"))
}
