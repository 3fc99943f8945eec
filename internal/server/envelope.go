package server

import "encoding/json"

// Frame event names owned by the transport layer itself. Protocol event
// names come from the relay package.
const (
	// EventAuth carries the connection-time credential payload
	EventAuth = "auth"
	// EventAck carries an acknowledgment, either a reply to a
	// client-initiated request or an answer to a server-initiated
	// ack-with-timeout exchange
	EventAck = "ack"
)

// Envelope is the wire frame for every WebSocket message. Event names ride
// in the type field; request/acknowledgment exchanges are correlated by
// ack_id.
type Envelope struct {
	Type  string          `json:"type"`
	AckID string          `json:"ack_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// newEnvelope builds an envelope with the payload marshaled into Data. A nil
// payload produces an envelope without a data field.
func newEnvelope(event, ackID string, payload any) (*Envelope, error) {
	env := &Envelope{Type: event, AckID: ackID}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	env.Data = data
	return env, nil
}
