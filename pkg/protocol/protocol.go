package protocol

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

var ErrNoReply = errors.New("no reply from hub")

type PtclConfig struct {
	Shard   string
	Url     string
	Reconn  uint
	Timeout time.Duration
	EmitOut func(*Message)
}

// Protocol speaks the hub line protocol TO:VERB:NOUN[:ARGS...]:FROM over
// a websocket. One request may wait for a reply at a time; everything
// else addressed to this shard goes to EmitOut.
type Protocol struct {
	ws *WebSocket

	shard   string
	timeout time.Duration

	reqMu sync.Mutex

	waiterMu sync.Mutex
	waiter   chan *Message

	emitOut func(*Message)
}

func NewProtocol(ctx context.Context, cfg PtclConfig) (*Protocol, error) {
	ws, err := NewWebSocket(ctx, cfg.Url, cfg.Reconn, cfg.Timeout)
	if err != nil {
		log.Error("Failed to init ws connection")
		return nil, err
	}

	ptcl := &Protocol{
		shard:   cfg.Shard,
		timeout: cfg.Timeout,
		ws:      ws,
		emitOut: cfg.EmitOut,
	}

	return ptcl, nil
}

func (ptcl *Protocol) Shard() string {
	return ptcl.shard
}

func (ptcl *Protocol) EmitOut(f func(*Message)) {
	ptcl.emitOut = f
}

// TransmitReceive sends v and waits for the next frame addressed to this
// shard, bounded by ctx and the configured timeout.
func (ptcl *Protocol) TransmitReceive(ctx context.Context, v any) (*Message, error) {
	ptcl.reqMu.Lock()
	defer ptcl.reqMu.Unlock()

	if ptcl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ptcl.timeout)
		defer cancel()
	}

	w := ptcl.installWaiter()
	defer ptcl.clearWaiter()

	if err := ptcl.Transmit(v); err != nil {
		return nil, err
	}

	select {
	case msg := <-w:
		return msg, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNoReply, ctx.Err())
	}
}

func (ptcl *Protocol) Transmit(v any) error {
	var msg string

	switch m := v.(type) {
	case Message:
		m.From = ptcl.shard
		msg = m.String()
	case *Message:
		c := *m
		c.From = ptcl.shard
		msg = c.String()
	case string:
		msg = fmt.Sprintf("%s:%s", m, ptcl.shard)
	case []string:
		pay := strings.Join(m, ":")
		msg = fmt.Sprintf("%s:%s", pay, ptcl.shard)
	default:
		log.Error("Provided unsupported type")
		return fmt.Errorf("unsupported type %T", v)
	}

	err := ptcl.ws.Write([]byte(msg))
	if err != nil {
		log.Error("Failed to transmit", "msg", msg, "err", err)
	}
	return err
}

// Run reads frames until ctx is done, reconnecting when the hub drops.
func (ptcl *Protocol) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { ptcl.ws.Close() })
	defer stop()

	for {
		in := ptcl.ws.Read()
		if ctx.Err() != nil {
			return
		}

		switch in.kind {
		case CONN_CLOSE:
			log.Warn("Trying to reconnect on", "url", ptcl.ws.url)
			if err := ptcl.ws.TryReconn(ctx); err != nil {
				return
			}
			log.Info("Succefully reconnected")

		case READ_FAILURE:
			log.Error("Failed to read", "err", in.err)
			if err := ptcl.ws.TryReconn(ctx); err != nil {
				return
			}

		case READ_OK:
			if !ptcl.checkRecipient(in.msg) {
				continue
			}

			msg, err := Parse(string(in.msg))
			if err != nil {
				log.Warn("Failed to parse", "msg", string(in.msg), "err", err)
				continue
			}

			if !ptcl.deliver(msg) && ptcl.emitOut != nil {
				ptcl.emitOut(msg)
			}
		}
	}
}

func (ptcl *Protocol) Close() error {
	return ptcl.ws.Close()
}

func (ptcl *Protocol) installWaiter() chan *Message {
	ptcl.waiterMu.Lock()
	defer ptcl.waiterMu.Unlock()
	ptcl.waiter = make(chan *Message, 1)
	return ptcl.waiter
}

func (ptcl *Protocol) clearWaiter() {
	ptcl.waiterMu.Lock()
	defer ptcl.waiterMu.Unlock()
	ptcl.waiter = nil
}

// deliver hands msg to a pending request, if any.
func (ptcl *Protocol) deliver(msg *Message) bool {
	ptcl.waiterMu.Lock()
	defer ptcl.waiterMu.Unlock()
	if ptcl.waiter == nil {
		return false
	}
	select {
	case ptcl.waiter <- msg:
		return true
	default:
		return false
	}
}

func (ptcl *Protocol) checkRecipient(msg []byte) bool {
	to := strings.Split(string(msg), ":")[0]
	return to == ptcl.shard || to == "ALL"
}

func Parse(line string) (*Message, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return nil, errors.New("empty message")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		// frames are single-line
		return nil, fmt.Errorf("invalid whitespace present")
	}
	parts := strings.Split(s, ":")
	if len(parts) < 4 {
		return nil, fmt.Errorf("too few fields: got %d, want >= 4", len(parts))
	}

	to := parts[0]
	verb := parts[1]
	noun := parts[2]
	from := parts[len(parts)-1]
	args := append([]string(nil), parts[3:len(parts)-1]...)

	if !isToken(to) && !isHexID(to) && to != "ALL" {
		return nil, fmt.Errorf("invalid TO token: %q", to)
	}
	if !isToken(from) && !isHexID(from) {
		return nil, fmt.Errorf("invalid FROM token: %q", from)
	}

	if !isToken(noun) || !isToken(verb) {
		return nil, fmt.Errorf("invalid NOUN/VERB: %q %q", noun, verb)
	}
	for i, a := range args {
		if !isToken(a) {
			return nil, fmt.Errorf("invalid ARG[%d]: %q", i, a)
		}
	}

	msg := &Message{
		To:   to,
		Verb: strings.ToUpper(verb),
		Noun: strings.ToUpper(noun),
		Args: args,
		From: from,
	}
	return msg, nil
}

var (
	tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	hexIDRe = regexp.MustCompile(`^[0-9A-F]{2}$`)
)

func isToken(s string) bool {
	return tokenRe.MatchString(s)
}

func isHexID(s string) bool {
	return hexIDRe.MatchString(strings.ToUpper(s))
}

type Message struct {
	To   string
	Verb string
	Noun string
	Args []string
	From string
}

func (m *Message) String() string {
	parts := make([]string, 0, 4+len(m.Args))
	parts = append(parts, m.To)
	parts = append(parts, m.Verb)
	parts = append(parts, m.Noun)
	parts = append(parts, m.Args...)
	parts = append(parts, m.From)
	return strings.Join(parts, ":")
}

func (m *Message) IsOk() bool {
	return m.Verb == "OK"
}

func (m *Message) Error(reason string, args ...string) {
	m.Verb = "ERR"
	m.Noun = reason
	m.Args = args
}

func (m *Message) Ok(reason string, args ...string) {
	m.Verb = "OK"
	m.Noun = reason
	m.Args = args
}
