package protocol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHub answers every frame with reply(frame); an empty reply is dropped.
func fakeHub(t *testing.T, reply func(frame string) string) string {
	t.Helper()
	upgrader := ws.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if out := reply(string(data)); out != "" {
				if err := conn.WriteMessage(ws.TextMessage, []byte(out)); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, url string, timeout time.Duration, emit func(*Message)) *Protocol {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ptcl, err := NewProtocol(ctx, PtclConfig{Shard: "vox", Url: url, Reconn: 1, Timeout: timeout, EmitOut: emit})
	require.NoError(t, err)
	go ptcl.Run(ctx)
	return ptcl
}

func TestParse(t *testing.T) {
	msg, err := Parse("vox:ok:lamp:on:VERTEX")
	require.NoError(t, err)
	assert.Equal(t, &Message{To: "vox", Verb: "OK", Noun: "LAMP", Args: []string{"on"}, From: "VERTEX"}, msg)
	assert.Equal(t, "vox:OK:LAMP:on:VERTEX", msg.String())
	assert.True(t, msg.IsOk())

	for _, bad := range []string{"", "a:b:c", "vox:OK:LA MP:X", "vox:OK:LAMP:bad$arg:X", "v o x:OK:LAMP:X"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestMessage_OkError(t *testing.T) {
	m := &Message{To: "VERTEX", Verb: "ON", Noun: "LAMP", From: "vox"}
	m.Error("BUSY", "1")
	assert.Equal(t, "VERTEX:ERR:BUSY:1:vox", m.String())
	m.Ok("LAMP")
	assert.Equal(t, "VERTEX:OK:LAMP:vox", m.String())
}

func TestTransmitReceive(t *testing.T) {
	url := fakeHub(t, func(frame string) string {
		msg, err := Parse(frame)
		if err != nil {
			return ""
		}
		return msg.From + ":OK:" + msg.Noun + ":" + msg.To
	})
	ptcl := connect(t, url, time.Second, nil)

	reply, err := ptcl.TransmitReceive(context.Background(), []string{"VERTEX", "ON", "LAMP"})
	require.NoError(t, err)
	assert.Equal(t, "OK", reply.Verb)
	assert.Equal(t, "LAMP", reply.Noun)
	assert.Equal(t, "VERTEX", reply.From)

	reply, err = ptcl.TransmitReceive(context.Background(), Message{To: "VERTEX", Verb: "OFF", Noun: "LAMP"})
	require.NoError(t, err)
	assert.True(t, reply.IsOk())
}

func TestTransmitReceive_Timeout(t *testing.T) {
	url := fakeHub(t, func(string) string { return "" })
	ptcl := connect(t, url, 50*time.Millisecond, nil)

	_, err := ptcl.TransmitReceive(context.Background(), "VERTEX:ON:LAMP")
	assert.ErrorIs(t, err, ErrNoReply)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnsolicitedFramesEmitted(t *testing.T) {
	got := make(chan *Message, 1)
	url := fakeHub(t, func(frame string) string {
		if strings.HasPrefix(frame, "PING") {
			return "vox:EVT:DOOR:open:VERTEX"
		}
		return ""
	})
	ptcl := connect(t, url, time.Second, func(m *Message) { got <- m })

	require.NoError(t, ptcl.Transmit("PING:HUB:NOW"))

	select {
	case m := <-got:
		assert.Equal(t, "DOOR", m.Noun)
		assert.Equal(t, []string{"open"}, m.Args)
	case <-time.After(2 * time.Second):
		t.Fatal("no unsolicited frame delivered")
	}
}
