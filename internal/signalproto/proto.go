// Package signalproto defines the JSON wire protocol exchanged between the
// rendezvous server and its peers over a WebSocket connection.
package signalproto

import "encoding/json"

// Client-to-server event kinds.
const (
	KindRegister          = "register"
	KindRequestConnection = "request-connection"
	KindAcceptConnection  = "accept-connection"
	KindCallRequest       = "call-request"
	KindCallAccepted      = "call-accepted"
	KindCallRejected      = "call-rejected"
	KindCallEnded         = "call-ended"
	KindJoin              = "join"
	KindSignal            = "signal"
	KindAuth              = "auth"
	KindPing              = "ping"
)

// Server-to-client notification kinds. Call lifecycle responses are
// forwarded under their inbound kind names; only these three are renamed.
const (
	KindIncomingRequest    = "incoming-request"
	KindConnectionAccepted = "connection-accepted"
	KindIncomingCall       = "incoming-call"
	KindPong               = "pong"
)

// Message is the envelope for every event on the signaling WebSocket.
// Payload is never interpreted by the server; it is carried verbatim
// between peers.
type Message struct {
	Kind     string          `json:"kind"`
	Key      string          `json:"key,omitempty"`
	To       string          `json:"to,omitempty"`
	From     string          `json:"from,omitempty"`
	CallType string          `json:"callType,omitempty"`
	Room     string          `json:"room,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals a message for transport.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode unmarshals a raw frame into a message.
func Decode(data []byte, m *Message) error {
	return json.Unmarshal(data, m)
}
