package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/testutil"
)

func newStreamServer(t *testing.T, m *HubManager) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		client, unsubscribe := m.Subscribe("", TopicMatches)
		defer unsubscribe()
		ServeSSE(w, r, client)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		client, unsubscribe := m.Subscribe("", TopicMatches)
		defer unsubscribe()
		ServeWS(w, r, client, testutil.NopLogger())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServeSSE(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()
	srv := newStreamServer(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	// Skip the rest of the connected frame
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			break
		}
	}

	m.Dispatch(model.Event{Type: model.EventMatchCreated, MatchID: "m1", Match: &model.Match{ID: "m1", CreatedBy: "alice"}})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: match_created\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: {"))
	assert.Contains(t, line, `"match_id":"m1"`)
}

func TestServeWS(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()
	srv := newStreamServer(t, m)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "connected", frame.Event)

	m.Dispatch(model.Event{Type: model.EventMatchJoined, MatchID: "m1", Match: &model.Match{ID: "m1", CreatedBy: "alice"}})

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "match_joined", frame.Event)
	assert.Contains(t, string(frame.Data), `"match_id":"m1"`)
}
