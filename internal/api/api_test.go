package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competecore/competecore/internal/api"
	"github.com/competecore/competecore/internal/api/apierr"
	"github.com/competecore/competecore/internal/api/response"
	"github.com/competecore/competecore/internal/factory"
	"github.com/competecore/competecore/internal/testutil"
)

// testServer wires the router onto a test app with mocked dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:             testutil.NopLogger(),
		AuthService:        app.AuthService,
		MatchesController:  app.MatchesController,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
		StorageType:        factory.StorageTypeMemory,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) signup(t *testing.T, email, username string) response.AuthResponse {
	t.Helper()

	body := map[string]string{"email": email, "password": "secret123", "username": username}
	rr := ts.request(http.MethodPost, "/api/v1/auth/signup", body, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) createMatch(t *testing.T, token string, body map[string]any) response.Match {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/matches", body, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var match response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &match))
	return match
}

func casualMatch() map[string]any {
	return map[string]any{
		"game_mode":          "hardpoint",
		"input_method":       "controller",
		"weapon_restriction": "all",
		"score_limit":        30,
		"time_limit":         10,
		"type":               "casual",
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	signup := ts.signup(t, "alice@example.com", "alice")
	assert.Equal(t, "alice", signup.User.Username)
	assert.Equal(t, "alice@example.com", signup.User.Email)
	assert.NotEmpty(t, signup.SessionToken)
	assert.Zero(t, signup.User.Stats.GamesPlayed)

	body := map[string]string{"email": "alice@example.com", "password": "secret123"}
	rr := ts.request(http.MethodPost, "/api/v1/auth/login", body, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var login response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	assert.Equal(t, signup.User.ID, login.User.ID)
	assert.NotEqual(t, signup.SessionToken, login.SessionToken)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestSignupSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"email": "alice@example.com", "password": "secret123", "username": "alice"}
	rr := ts.request(http.MethodPost, "/api/v1/auth/signup", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	ts.handler.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestSignupDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "alice@example.com", "alice")

	tests := []struct {
		name     string
		email    string
		username string
	}{
		{"same email", "alice@example.com", "alice2"},
		{"same username", "other@example.com", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]string{"email": tt.email, "password": "secret123", "username": tt.username}
			rr := ts.request(http.MethodPost, "/api/v1/auth/signup", body, "")
			assert.Equal(t, http.StatusConflict, rr.Code)

			apiErr := decodeError(t, rr)
			assert.Equal(t, apierr.CodeUserExists, apiErr.Code)
			assert.Equal(t, "User already exists with this email or username", apiErr.Message)
		})
	}

	rr := ts.request(http.MethodGet, "/api/v1/users", nil, "")
	var users []response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"bad email", map[string]string{"email": "not-an-email", "password": "secret123", "username": "alice"}, "email"},
		{"short password", map[string]string{"email": "a@example.com", "password": "abc", "username": "alice"}, "password"},
		{"mismatched confirm", map[string]string{"email": "a@example.com", "password": "secret123", "confirm_password": "secret124", "username": "alice"}, "confirm_password"},
		{"short username", map[string]string{"email": "a@example.com", "password": "secret123", "username": "al"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/auth/signup", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			apiErr := decodeError(t, rr)
			assert.Equal(t, apierr.CodeInvalidRequest, apiErr.Code)
			assert.Equal(t, tt.field, apiErr.Field)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "alice@example.com", "alice")

	for _, body := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "secret123"},
	} {
		rr := ts.request(http.MethodPost, "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		apiErr := decodeError(t, rr)
		assert.Equal(t, apierr.CodeInvalidCredentials, apiErr.Code)
		assert.Equal(t, "Invalid email or password", apiErr.Message)
	}
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches", casualMatch(), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/users/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")

	rr := ts.request(http.MethodPost, "/api/v1/auth/logout", nil, alice.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/users/me", nil, alice.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMatchLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")
	bob := ts.signup(t, "bob@example.com", "bob")

	match := ts.createMatch(t, alice.SessionToken, casualMatch())
	assert.Equal(t, "open", match.Status)
	assert.Equal(t, "alice", match.CreatedByUsername)
	assert.Len(t, match.InviteCode, 6)

	// Listed as open for everyone
	rr := ts.request(http.MethodGet, "/api/v1/matches/open", nil, "")
	var open []response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &open))
	require.Len(t, open, 1)
	assert.Equal(t, match.ID, open[0].ID)

	// Creator cannot join
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/join", nil, alice.SessionToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeCannotJoinOwnMatch, decodeError(t, rr).Code)

	// Bob joins
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/join", nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var joined response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &joined))
	assert.Equal(t, "in-progress", joined.Status)
	assert.Equal(t, bob.User.ID, joined.Opponent)
	assert.NotNil(t, joined.JoinedAt)

	// Joining again fails
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/join", nil, bob.SessionToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeMatchNotOpen, decodeError(t, rr).Code)

	// Bob's matches include it
	rr = ts.request(http.MethodGet, "/api/v1/matches/mine", nil, bob.SessionToken)
	var mine []response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	// Result reported by a participant
	body := map[string]string{"winner_id": bob.User.ID}
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/complete", body, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var completed response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &completed))
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, bob.User.ID, completed.WinnerID)

	// Stats refreshed on /users/me
	rr = ts.request(http.MethodGet, "/api/v1/users/me", nil, bob.SessionToken)
	var me response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, 1, me.Stats.Wins)
	assert.Equal(t, 100, me.Stats.WinRate)
}

func TestCreateMatchValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")

	body := casualMatch()
	body["score_limit"] = 5
	rr := ts.request(http.MethodPost, "/api/v1/matches", body, alice.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "score_limit", decodeError(t, rr).Field)

	body = casualMatch()
	body["type"] = "wager"
	rr = ts.request(http.MethodPost, "/api/v1/matches", body, alice.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "wager_amount", decodeError(t, rr).Field)

	rr = ts.request(http.MethodPost, "/api/v1/matches", "not an object", alice.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJoinByInviteCode(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("XYZ789")
	alice := ts.signup(t, "alice@example.com", "alice")
	bob := ts.signup(t, "bob@example.com", "bob")

	match := ts.createMatch(t, alice.SessionToken, casualMatch())
	require.Equal(t, "XYZ789", match.InviteCode)

	rr := ts.request(http.MethodPost, "/api/v1/matches/join", map[string]string{"invite_code": " xyz789 "}, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/join", map[string]string{"invite_code": "NOPE22"}, bob.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeInviteCodeNotFound, decodeError(t, rr).Code)
}

func TestMatchNotFound(t *testing.T) {
	ts := newTestServer(t)
	bob := ts.signup(t, "bob@example.com", "bob")

	rr := ts.request(http.MethodGet, "/api/v1/matches/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeMatchNotFound, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/missing/join", nil, bob.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCompleteMatchRequiresParticipant(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")
	bob := ts.signup(t, "bob@example.com", "bob")
	carol := ts.signup(t, "carol@example.com", "carol")

	match := ts.createMatch(t, alice.SessionToken, casualMatch())
	rr := ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/join", nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	body := map[string]string{"winner_id": carol.User.ID}
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/complete", body, carol.SessionToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotParticipant, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/complete", body, alice.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidWinner, decodeError(t, rr).Code)
}

func TestUsersAndLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")
	bob := ts.signup(t, "bob@example.com", "bob")

	wager := casualMatch()
	wager["type"] = "wager"
	wager["wager_amount"] = 40
	match := ts.createMatch(t, alice.SessionToken, wager)
	rr := ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/join", nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/matches/"+match.ID+"/complete", map[string]string{"winner_id": bob.User.ID}, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	// All users in registration order
	rr = ts.request(http.MethodGet, "/api/v1/users", nil, "")
	var users []response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)

	// Profile with rank
	rr = ts.request(http.MethodGet, "/api/v1/users/"+alice.User.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var profile response.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, 2, profile.Rank)
	assert.Equal(t, 1, profile.User.Stats.Losses)

	rr = ts.request(http.MethodGet, "/api/v1/users/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Match history by user
	rr = ts.request(http.MethodGet, "/api/v1/users/"+alice.User.ID+"/matches", nil, "")
	var history []response.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	// Earnings leaderboard
	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?by=earnings&limit=1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var board response.Leaderboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	assert.Equal(t, "earnings", board.By)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "bob", board.Entries[0].Username)
	assert.Equal(t, 40.0, board.Entries[0].Stats.Earnings)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?by=kills", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?limit=-3", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMatchQRCode(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")
	match := ts.createMatch(t, alice.SessionToken, casualMatch())

	rr := ts.request(http.MethodGet, "/api/v1/matches/"+match.ID+"/qr", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = ts.request(http.MethodGet, "/api/v1/matches/"+match.ID+"/qr?size=5", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice@example.com", "alice")

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
				return name
			}
		}
	}
	require.Equal(t, "connected", readEvent())

	ts.createMatch(t, alice.SessionToken, casualMatch())
	assert.Equal(t, "match_created", readEvent())
}
