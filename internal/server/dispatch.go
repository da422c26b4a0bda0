package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syrja/rendezvous/internal/signalproto"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	sess := newSession(conn, remoteHost(r))
	s.hub.add(sess)
	s.log.Info("session connected", "session_id", sess.id, "source", sess.source)

	go s.readLoop(sess)
}

func (s *Server) readLoop(sess *session) {
	defer func() {
		_ = sess.conn.Close()
		s.hub.remove(sess.id)
		s.rooms.leaveAll(sess)
		if sess.identityKey != "" {
			s.registry.unregister(sess.identityKey, sess.id)
		}
		s.log.Info("session disconnected", "session_id", sess.id)
	}()

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn("session read error", "session_id", sess.id, "err", err)
			}
			return
		}
		var msg signalproto.Message
		if err := signalproto.Decode(data, &msg); err != nil {
			s.log.Debug("malformed event dropped", "session_id", sess.id, "err", err)
			continue
		}
		s.dispatch(sess, msg)
	}
}

// dispatch routes one inbound event. Initiating events (register,
// request-connection) pass the rate limiter; responses to already-initiated
// flows do not. The initiator is throttled, the responder never is.
func (s *Server) dispatch(sess *session, msg signalproto.Message) {
	switch msg.Kind {
	case signalproto.KindRegister:
		key := normalizeKey(msg.Key)
		if key == "" {
			return
		}
		if !s.limiter.admit(sess.source) {
			s.log.Debug("register rate-limited", "session_id", sess.id, "source", sess.source)
			return
		}
		s.registry.register(key, sess.id)
		sess.identityKey = key
		s.log.Info("identity registered", "session_id", sess.id, "key", key)

	case signalproto.KindRequestConnection:
		if !s.limiter.admit(sess.source) {
			s.log.Debug("connection request rate-limited", "session_id", sess.id, "source", sess.source)
			return
		}
		s.forward(msg.To, signalproto.Message{Kind: signalproto.KindIncomingRequest, From: msg.From})

	case signalproto.KindAcceptConnection:
		s.forward(msg.To, signalproto.Message{Kind: signalproto.KindConnectionAccepted, From: msg.From})

	case signalproto.KindCallRequest:
		s.forward(msg.To, signalproto.Message{Kind: signalproto.KindIncomingCall, From: msg.From, CallType: msg.CallType})

	case signalproto.KindCallAccepted, signalproto.KindCallRejected, signalproto.KindCallEnded:
		// The call state machine lives at the endpoints; the server is a
		// stateless router and does not police transition order.
		s.forward(msg.To, signalproto.Message{Kind: msg.Kind, From: msg.From})

	case signalproto.KindJoin:
		if msg.Room == "" {
			return
		}
		s.rooms.join(sess, msg.Room)
		s.log.Debug("joined room", "session_id", sess.id, "room", msg.Room)

	case signalproto.KindSignal, signalproto.KindAuth:
		if msg.Room == "" {
			return
		}
		s.relay(sess, msg)

	case signalproto.KindPing:
		_ = sess.writeMsg(signalproto.Message{Kind: signalproto.KindPong})

	default:
		s.log.Debug("unknown event kind dropped", "session_id", sess.id, "kind", msg.Kind)
	}
}

// forward resolves the target identity and delivers the notification to its
// current session. Unresolvable or stale targets drop the message with only
// a local diagnostic; the sender is never told.
func (s *Server) forward(to string, msg signalproto.Message) {
	to = normalizeKey(to)
	id, ok := s.registry.resolve(to)
	if !ok {
		s.log.Debug("target identity not registered", "kind", msg.Kind, "to", to)
		return
	}
	target := s.hub.get(id)
	if target == nil {
		s.log.Debug("target session gone", "kind", msg.Kind, "to", to, "session_id", id)
		return
	}
	if err := target.writeMsg(msg); err != nil {
		s.log.Debug("delivery failed", "kind", msg.Kind, "to", to, "session_id", id, "err", err)
	}
}

// relay broadcasts the payload verbatim to every other member of the room
// under the inbound channel name (signal or auth). Writes happen on the
// sender's read loop, so events from one sender reach each member in the
// order they were issued.
func (s *Server) relay(sess *session, msg signalproto.Message) {
	out := signalproto.Message{Kind: msg.Kind, Room: msg.Room, From: msg.From, Payload: msg.Payload}
	for _, member := range s.rooms.othersIn(msg.Room, sess.id) {
		if err := member.writeMsg(out); err != nil {
			s.log.Debug("relay delivery failed", "room", msg.Room, "session_id", member.id, "err", err)
		}
	}
}
