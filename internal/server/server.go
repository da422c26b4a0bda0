// Package server implements the rendezvous and signaling relay: a registry
// of live WebSocket sessions keyed by client-supplied identity, room-based
// broadcast of opaque payloads, call-lifecycle routing, and the HTTP surface
// of the invite directory.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/syrja/rendezvous/internal/config"
	"github.com/syrja/rendezvous/internal/directory"
	"github.com/syrja/rendezvous/internal/signalproto"
)

const wsWriteTimeout = 10 * time.Second
const wsReadLimit = 1 << 20

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server routes signaling events between live sessions and serves the
// invite directory. All session state is memory-only and dies with the
// process.
type Server struct {
	cfg      config.ServerConfig
	log      *slog.Logger
	dir      *directory.Directory
	hub      *hub
	registry *registry
	rooms    *rooms
	limiter  *rateLimiter
}

// New assembles a server from its owned service objects. Each collaborator
// has exclusive mutation rights over its own state, which keeps tests to
// "swap in a fresh instance".
func New(cfg config.ServerConfig, dir *directory.Directory, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      logger,
		dir:      dir,
		hub:      newHub(),
		registry: newRegistry(),
		rooms:    newRooms(),
		limiter:  newRateLimiter(cfg.RateLimitWindow, cfg.RateLimitQuota),
	}
}

// hub tracks every live session by its transport-assigned ID.
type hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newHub() *hub {
	return &hub{sessions: map[string]*session{}}
}

func (h *hub) add(sess *session) {
	h.mu.Lock()
	h.sessions[sess.id] = sess
	h.mu.Unlock()
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

func (h *hub) get(id string) *session {
	h.mu.RLock()
	sess := h.sessions[id]
	h.mu.RUnlock()
	return sess
}

func (h *hub) closeAll() {
	h.mu.Lock()
	for id, sess := range h.sessions {
		_ = sess.conn.Close()
		delete(h.sessions, id)
	}
	h.mu.Unlock()
}

// session is one live WebSocket connection. The ID is opaque, unique per
// connection, and invalid after disconnect. identityKey and joined are
// touched only by the session's own read loop.
type session struct {
	id      string
	conn    *websocket.Conn
	source  string
	writeMu sync.Mutex

	identityKey string
	joined      map[string]struct{}
}

func newSession(conn *websocket.Conn, source string) *session {
	return &session{
		id:     uuid.NewString(),
		conn:   conn,
		source: source,
		joined: map[string]struct{}{},
	}
}

func (s *session) writeMsg(msg signalproto.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		_ = s.conn.Close()
		return err
	}
	defer func() { _ = s.conn.SetWriteDeadline(time.Time{}) }()
	err := s.conn.WriteJSON(msg)
	if err != nil {
		_ = s.conn.Close()
	}
	return err
}

// remoteHost extracts the source address used for rate limiting. The port
// changes per connection, so only the host part identifies the source.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
