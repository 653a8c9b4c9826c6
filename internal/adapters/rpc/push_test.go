package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

type fakeConn struct {
	frames []core.Frame
	err    error
	closed bool
}

func (f *fakeConn) TrySend(frame core.Frame) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func decodeFrame(t *testing.T, frame core.Frame) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(frame, &m))
	return m
}

func TestNotifierPushesToBoundClient(t *testing.T) {
	n := NewNotifier()
	conn := &fakeConn{}
	n.Bind("client-a", conn)

	n.SetInterpretationState("client-a", true)
	n.SetCachedAutoAnswerState("client-a", true)
	n.SetCachedDoNotDisturbState("client-a", false)
	n.SetCachedPrivacyMuteState("client-a", true)

	require.Len(t, conn.frames, 4)
	first := decodeFrame(t, conn.frames[0])
	assert.Equal(t, "set_interpretation_state", first["type"])
	assert.Equal(t, true, first["active"])
	assert.Equal(t, "set_cached_auto_answer_state", decodeFrame(t, conn.frames[1])["type"])
	assert.Equal(t, "set_cached_do_not_disturb_state", decodeFrame(t, conn.frames[2])["type"])
	assert.Equal(t, "set_cached_privacy_mute_state", decodeFrame(t, conn.frames[3])["type"])
}

func TestNotifierSourceStatePayload(t *testing.T) {
	n := NewNotifier()
	conn := &fakeConn{}
	n.Bind("client-a", conn)

	snap := domain.ConferenceSnapshot{
		Name:   "weekly sync",
		Status: domain.StatusConnected,
		Participants: []domain.ParticipantSnapshot{
			{Name: "alice", Number: "+1", Status: domain.StatusConnected},
		},
	}
	n.UpdateCachedSourceState("client-a", "call-1", snap)

	require.Len(t, conn.frames, 1)
	m := decodeFrame(t, conn.frames[0])
	assert.Equal(t, "update_cached_source_state", m["type"])
	assert.Equal(t, "call-1", m["call"])

	state, ok := m["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "weekly sync", state["name"])
	assert.Equal(t, "connected", state["status"])
}

func TestNotifierDropsForUnknownClient(t *testing.T) {
	n := NewNotifier()
	conn := &fakeConn{}
	n.Bind("client-a", conn)
	n.Unbind("client-a")

	n.SetInterpretationState("client-a", true)

	assert.Empty(t, conn.frames)
}

func TestNotifierSwallowsBackpressure(t *testing.T) {
	n := NewNotifier()
	conn := &fakeConn{err: ErrBackpressure}
	n.Bind("client-a", conn)

	// A slow client just misses the push; no panic, no retry.
	n.SetInterpretationState("client-a", true)
	assert.Empty(t, conn.frames)
}
