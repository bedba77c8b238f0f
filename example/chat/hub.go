package main

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Zereker/itre"
	"github.com/Zereker/itre/frame"
	"github.com/Zereker/itre/socket"
)

// hub relays every message a session sends to all other sessions.
// Sessions are identified by a generated id for the lifetime of their
// connection.
type hub struct {
	cfg Config
	ctx context.Context

	mu       sync.RWMutex
	sessions map[string]*socket.Conn
}

func newHub(ctx context.Context, cfg Config) *hub {
	return &hub{
		cfg:      cfg,
		ctx:      ctx,
		sessions: make(map[string]*socket.Conn),
	}
}

// Handle wires one TCP connection into the relay.
func (h *hub) Handle(conn *net.TCPConn) {
	id := uuid.New().String()

	codec := socket.NewCodec(frame.Limits{MaxPayload: h.cfg.MaxFrameBytes}, h.cfg.Compress)

	sess, err := socket.NewConn(conn,
		socket.CustomCodecOption(codec),
		socket.MessageMaxSize(h.cfg.MaxFrameBytes),
		socket.BufferSizeOption(h.cfg.BufferSize),
		socket.IdleTimeoutOption(h.cfg.IdleTimeout),
		socket.LoggerOption(zerologAdapter{logger: log.Logger}),
		socket.OnMessageOption(func(envelope *socket.Envelope) error {
			h.relay(id, envelope)
			return nil
		}),
		socket.OnErrorOption(func(err error) socket.ErrorAction {
			log.Warn().Err(err).Str("session", id).Msg("session error")
			return socket.Disconnect
		}),
	)
	if err != nil {
		log.Error().Err(err).Msg("reject connection")
		conn.Close()
		return
	}

	h.add(id, sess)
	defer h.remove(id)

	if err := sess.Run(h.ctx); err != nil {
		log.Debug().Err(err).Str("session", id).Msg("session closed")
	}
}

// relay forwards the already encoded payload to every other session.
// Nop messages are treated as keepalives and not relayed. A session
// whose send buffer is full misses the message instead of blocking the
// sender.
func (h *hub) relay(from string, envelope *socket.Envelope) {
	if envelope.Message.Type() == itre.TypeNop {
		return
	}

	event := log.Debug().
		Str("session", from).
		Str("type", envelope.Message.Type().String()).
		Int("bytes", len(envelope.Payload))
	switch m := envelope.Message.(type) {
	case itre.Text:
		event = event.Str("preview", preview(string(m)))
	case itre.Emo:
		event = event.Str("emo", m.String())
	case itre.Compound:
		event = event.Int("items", len(m))
	}
	event.Msg("relay message")

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sess := range h.sessions {
		if id == from {
			continue
		}
		if err := sess.Write(envelope.Payload); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("drop message")
		}
	}
}

// preview shortens a text body for logging.
func preview(s string) string {
	const max = 32
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func (h *hub) add(id string, sess *socket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Info().Str("session", id).Str("addr", sess.Addr().String()).Msg("session joined")
	h.sessions[id] = sess
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, id)
	log.Info().Str("session", id).Msg("session left")
}
