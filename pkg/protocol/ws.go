package protocol

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

type WebSocket struct {
	connMu sync.Mutex
	conn   *ws.Conn

	writeMu sync.Mutex

	url     string
	reconn  uint
	timeout time.Duration
}

func NewWebSocket(ctx context.Context, url string, reconn uint, timeout time.Duration) (*WebSocket, error) {
	log.Debug("init websocket protocol", "url", url)

	web := &WebSocket{
		url:     url,
		reconn:  reconn,
		timeout: timeout,
	}

	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		log.Error("Failed to dial url", "err", err)
		return nil, err
	}
	web.conn = conn

	return web, nil
}

func (web *WebSocket) current() *ws.Conn {
	web.connMu.Lock()
	defer web.connMu.Unlock()
	return web.conn
}

func (web *WebSocket) Write(payload []byte) error {
	web.writeMu.Lock()
	defer web.writeMu.Unlock()

	log.Debug("Write ws", "msg", string(payload))
	conn := web.current()
	if web.timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(web.timeout))
	}
	return conn.WriteMessage(ws.TextMessage, payload)
}

type WsIncomeKind uint

const (
	CONN_CLOSE WsIncomeKind = iota
	READ_FAILURE
	READ_OK
)

type Income struct {
	kind WsIncomeKind
	msg  []byte
	err  error
}

func (web *WebSocket) Read() Income {
	_, msg, err := web.current().ReadMessage()
	if err != nil {
		if WsIsClosed(err) {
			return Income{
				kind: CONN_CLOSE,
				err:  err,
			}
		}
		return Income{
			kind: READ_FAILURE,
			err:  err,
		}
	}

	log.Debug("Read ws", "msg", string(msg))
	return Income{
		kind: READ_OK,
		msg:  msg,
	}
}

// TryReconn dials until it succeeds or ctx is done.
func (web *WebSocket) TryReconn(ctx context.Context) error {
	delay := time.Second * time.Duration(max(web.reconn, 1))
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, web.url, nil)
		if err == nil {
			web.connMu.Lock()
			old := web.conn
			web.conn = conn
			web.connMu.Unlock()
			old.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (web *WebSocket) Close() error {
	return web.current().Close()
}

func WsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
