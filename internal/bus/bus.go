// Package bus connects the router to the Monolith message bus as the
// "vox" shard.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxrouter/internal/router"
)

const Shard = "vox"

const (
	KindText  = "text"
	KindReply = "reply"
)

var ErrMalformed = errors.New("malformed bus message")

type BusMessage struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Kind    string          `json:"kind"`
	Content string          `json:"content"`
	Audio   []byte          `json:"audio,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Bus struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewBus(ctx context.Context, wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	log.Info("Connected to bus", "url", wsURL)
	return &Bus{conn: conn}, nil
}

func (b *Bus) Read() (*BusMessage, error) {
	_, msg, err := b.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var m BusMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &m, nil
}

func (b *Bus) Write(m *BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) Close() error {
	return b.conn.Close()
}

// Handler runs one utterance through the router.
type Handler interface {
	Handle(ctx context.Context, text string) (router.VoiceCommand, router.CommandResponse)
}

// Serve answers every message addressed to the shard until the
// connection drops or ctx is done.
func (b *Bus) Serve(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() { b.Close() })
	defer stop()

	log.Info("Vox ready")
	for {
		msg, err := b.Read()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				log.Warn("Dropping malformed bus message", "err", err)
				continue
			}
			return err
		}
		if msg.To != "" && msg.To != Shard {
			continue
		}

		go b.answer(ctx, h, msg)
	}
}

func (b *Bus) answer(ctx context.Context, h Handler, msg *BusMessage) {
	var resp router.CommandResponse
	if len(msg.Audio) > 0 {
		resp = router.CommandResponse{Message: "I can only read text messages.", Speak: true}
	} else {
		_, resp = h.Handle(ctx, msg.Content)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("Failed to encode response", "err", err)
		return
	}

	reply := &BusMessage{
		From:    Shard,
		To:      msg.From,
		Kind:    KindReply,
		Content: resp.Message,
		Data:    data,
	}
	if err := b.Write(reply); err != nil {
		log.Error("Failed to send response", "err", err)
	}
}

// Run keeps a bus session alive, redialing every delay after a drop,
// until ctx is done.
func Run(ctx context.Context, wsURL string, h Handler, delay time.Duration) error {
	for {
		b, err := NewBus(ctx, wsURL)
		if err == nil {
			err = b.Serve(ctx, h)
		}
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("Bus session ended, reconnecting", "url", wsURL, "err", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
