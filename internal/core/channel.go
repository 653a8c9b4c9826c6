package core

import "github.com/dmaret/interp/internal/domain"

// Frame is a raw payload ready for the transport.
type Frame []byte

// ClientConn abstracts one client's leg of the procedure channel.
// Owned by the adapter; the adapter must Close() it.
type ClientConn interface {
	TrySend(Frame) error
	Close()
}

// RoomNotifier is the server→client procedure surface. Implementations
// resolve the client id to a live connection and send fire-and-forget; an
// unreachable client is simply skipped.
type RoomNotifier interface {
	SetInterpretationState(id domain.ClientID, active bool)
	UpdateCachedSourceState(id domain.ClientID, callID domain.CallID, snap domain.ConferenceSnapshot)
	SetCachedAutoAnswerState(id domain.ClientID, enabled bool)
	SetCachedDoNotDisturbState(id domain.ClientID, enabled bool)
	SetCachedPrivacyMuteState(id domain.ClientID, enabled bool)
}
