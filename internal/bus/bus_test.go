package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxrouter/internal/router"
)

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, text string) (router.VoiceCommand, router.CommandResponse) {
	return router.VoiceCommand{RawText: text}, router.CommandResponse{Success: true, Message: "you said " + text, Speak: true}
}

// fakeBus sends each of in to the shard and collects replies on out.
func fakeBus(t *testing.T, in []BusMessage, out chan<- BusMessage) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, m := range in {
			data, _ := json.Marshal(m)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m BusMessage
			if json.Unmarshal(data, &m) == nil {
				out <- m
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestServe(t *testing.T) {
	out := make(chan BusMessage, 4)
	url := fakeBus(t, []BusMessage{
		{From: "ui", To: "other", Kind: KindText, Content: "not for us"},
		{From: "ui", To: Shard, Kind: KindText, Content: "hello"},
		{From: "mic", Kind: KindText, Audio: []byte{1, 2}},
	}, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := NewBus(ctx, url)
	require.NoError(t, err)
	go b.Serve(ctx, echoHandler{})

	got := map[string]BusMessage{}
	for len(got) < 2 {
		select {
		case m := <-out:
			got[m.To] = m
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d replies, want 2", len(got))
		}
	}

	ui := got["ui"]
	assert.Equal(t, Shard, ui.From)
	assert.Equal(t, KindReply, ui.Kind)
	assert.Equal(t, "you said hello", ui.Content)
	var resp router.CommandResponse
	require.NoError(t, json.Unmarshal(ui.Data, &resp))
	assert.True(t, resp.Success)

	assert.Equal(t, "I can only read text messages.", got["mic"].Content)
}

func TestRun_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Run(ctx, "ws://127.0.0.1:1/ws", echoHandler{}, 20*time.Millisecond)
	assert.NoError(t, err)
}
