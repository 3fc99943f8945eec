package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

// newTestClient builds a client without a connection; hub operations only
// touch its send channel.
func newTestClient(hub *Hub) *Client {
	client := NewClient(hub, nil, nil)
	hub.Register(client)
	return client
}

func recvEnvelope(t *testing.T, c *Client) *Envelope {
	t.Helper()
	select {
	case env := <-c.send:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return nil
	}
}

func TestBroadcastToRoomSkipsSender(t *testing.T) {
	hub := newTestHub(t)

	sender := newTestClient(hub)
	peer := newTestClient(hub)
	outsider := newTestClient(hub)

	hub.JoinRoom("room-1", sender)
	hub.JoinRoom("room-1", peer)

	require.NoError(t, hub.BroadcastToRoom("room-1", "vibrate", map[string]float64{"value": 0.5}, sender))

	env := recvEnvelope(t, peer)
	assert.Equal(t, "vibrate", env.Type)
	assert.JSONEq(t, `{"value":0.5}`, string(env.Data))

	assert.Empty(t, sender.send)
	assert.Empty(t, outsider.send)
}

func TestBroadcastToEmptyRoomIsANoOp(t *testing.T) {
	hub := newTestHub(t)
	require.NoError(t, hub.BroadcastToRoom("nobody-home", "vibrate", nil, nil))
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	hub := newTestHub(t)

	member := newTestClient(hub)
	hub.JoinRoom("room-1", member)
	hub.LeaveRoom("room-1", member)

	require.NoError(t, hub.BroadcastToRoom("room-1", "vibrate", nil, nil))
	assert.Empty(t, member.send)
	assert.Equal(t, 0, hub.RoomSize("room-1"))
}

func TestUnregisterDropsRoomMembership(t *testing.T) {
	hub := newTestHub(t)

	member := newTestClient(hub)
	hub.JoinRoom("room-1", member)

	hub.Unregister(member)

	// wait for the hub loop to process the unregister
	require.Eventually(t, func() bool {
		return hub.RoomSize("room-1") == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.BroadcastToRoom("room-1", "vibrate", nil, nil))
}

func TestEmitToRoomWithAckFirstAckWins(t *testing.T) {
	hub := newTestHub(t)

	owner := newTestClient(hub)
	hub.JoinRoom("room-1", owner)

	go func() {
		env := <-owner.send
		hub.ResolveAck(env.AckID, json.RawMessage(`{"type":"accept"}`))
		// a second resolve for the same exchange must be dropped
		hub.ResolveAck(env.AckID, json.RawMessage(`{"type":"reject"}`))
	}()

	payload, err := hub.EmitToRoomWithAck(context.Background(), "room-1", "join_request",
		map[string]string{"message": "hi"}, 2*time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"accept"}`, string(payload))
}

func TestEmitToRoomWithAckTimesOut(t *testing.T) {
	hub := newTestHub(t)

	owner := newTestClient(hub)
	hub.JoinRoom("room-1", owner)

	start := time.Now()
	_, err := hub.EmitToRoomWithAck(context.Background(), "room-1", "join_request", nil, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrAckTimeout)
	assert.Less(t, time.Since(start), time.Second)

	// the request still went out
	env := recvEnvelope(t, owner)
	assert.Equal(t, "join_request", env.Type)
	assert.NotEmpty(t, env.AckID)
}

func TestEmitToRoomWithAckHonorsContextCancel(t *testing.T) {
	hub := newTestHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := hub.EmitToRoomWithAck(ctx, "room-1", "join_request", nil, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveAckForUnknownExchangeIsDropped(t *testing.T) {
	hub := newTestHub(t)
	hub.ResolveAck("never-issued", json.RawMessage(`{}`))
}

func TestEnvelopeEncoding(t *testing.T) {
	env, err := newEnvelope("join_request", "abc", map[string]string{"message": "hi"})
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join_request","ack_id":"abc","data":{"message":"hi"}}`, string(data))

	env, err = newEnvelope("session_finished", "", nil)
	require.NoError(t, err)
	data, err = json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"session_finished"}`, string(data))
}
