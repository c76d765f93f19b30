package hackchat_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/hackchat"
)

type eventCollector struct {
	events chan hackchat.Event
}

func (c *eventCollector) HandleEvent(_ context.Context, ev hackchat.Event) {
	c.events <- ev
}

func TestClientJoinAndReceive(t *testing.T) {
	t.Parallel()
	upgrader := websocket.Upgrader{}
	joins := make(chan map[string]string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var join map[string]string
		if err := json.Unmarshal(data, &join); err != nil {
			return
		}
		joins <- join

		frames := []string{
			`{"cmd":"chat","nick":"alice","text":"hello","trip":"AAAAAA"}`,
			`not json at all`,
			`{"other":"no cmd"}`,
			`{"cmd":"onlineSet"}`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	collector := &eventCollector{events: make(chan hackchat.Event, 8)}
	client := hackchat.NewClient(slog.Default(), hackchat.Options{
		URL:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		Channel:  "lounge",
		Nick:     "SiteSentry",
		Password: "hunter2",
	})
	client.SetHandler(collector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = client.Run(ctx)
		close(done)
	}()

	select {
	case join := <-joins:
		assert.Equal(t, "join", join["cmd"])
		assert.Equal(t, "lounge", join["channel"])
		assert.Equal(t, "SiteSentry#hunter2", join["nick"])
	case <-time.After(5 * time.Second):
		t.Fatal("no join frame received")
	}

	// Undecodable and cmd-less frames are skipped; the two real events come
	// through in order.
	var got []hackchat.Event
	for len(got) < 2 {
		select {
		case ev := <-collector.events:
			got = append(got, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, got %d events", len(got))
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, "chat", got[0].Cmd)
	assert.Equal(t, "alice", got[0].Nick)
	assert.Equal(t, "AAAAAA", got[0].Trip)
	assert.Equal(t, "onlineSet", got[1].Cmd)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestClientSendDroppedWhenClosed(t *testing.T) {
	t.Parallel()
	client := hackchat.NewClient(slog.Default(), hackchat.Options{
		URL: "ws://127.0.0.1:0/nowhere",
	})

	assert.False(t, client.Connected())
	// Must not panic or block.
	client.Send(hackchat.NewChatMessage("dropped"))
}

func TestChatMessageShape(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(hackchat.NewChatMessage("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cmd":"chat","text":"hi"}`, string(data))

	data, err = json.Marshal(hackchat.NewPingMessage())
	require.NoError(t, err)
	assert.JSONEq(t, `{"cmd":"ping"}`, string(data))
}
