// Package ipc is the control socket between vox-ctl and the daemon: one
// JSON request and one JSON reply per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"time"
)

const DefaultSocketPath = "/tmp/vox.sock"

const (
	CmdCommand      = "command"
	CmdTools        = "tools"
	CmdHistory      = "history"
	CmdContext      = "context"
	CmdClearContext = "clear_context"
)

type Request struct {
	Cmd   string `json:"cmd"`
	Text  string `json:"text,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type Reply struct {
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Handler answers one request; the value is sent back as the payload.
type Handler func(ctx context.Context, req Request) (any, error)

const connDeadline = 2 * time.Minute

// StartServer listens on path and serves connections until ctx is done,
// then removes the socket.
func StartServer(ctx context.Context, path string, handler Handler) error {
	os.Remove(path)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	context.AfterFunc(ctx, func() {
		ln.Close()
		os.Remove(path)
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("Failed to accept", "err", err)
				continue
			}
			go handleConn(ctx, conn, handler)
		}
	}()

	log.Info("Control socket listening", "path", path)
	return nil
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connDeadline))

	var req Request
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&req); err != nil {
		log.Warn("Bad control request", "err", err)
		writeReply(conn, Reply{Error: "bad request: " + err.Error()})
		return
	}

	log.Debug("Control request", "cmd", req.Cmd)
	out, err := handler(ctx, req)
	if err != nil {
		writeReply(conn, Reply{Error: err.Error()})
		return
	}

	payload, err := json.Marshal(out)
	if err != nil {
		writeReply(conn, Reply{Error: "encode payload: " + err.Error()})
		return
	}
	writeReply(conn, Reply{OK: true, Payload: payload})
}

func writeReply(conn net.Conn, r Reply) {
	if err := json.NewEncoder(conn).Encode(r); err != nil {
		log.Warn("Failed to write control reply", "err", err)
	}
}

// SendCommand sends req to the daemon at path and waits for its reply.
func SendCommand(ctx context.Context, path string, req Request) (Reply, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}
