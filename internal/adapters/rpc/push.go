package rpc

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

// Notifier implements core.RoomNotifier over the live connection set.
// Sends are fire-and-forget: an unreachable or slow client just misses
// the push and catches up on the next state change or rebind sync.
type Notifier struct {
	mu    sync.RWMutex
	conns map[domain.ClientID]core.ClientConn
}

func NewNotifier() *Notifier {
	return &Notifier{conns: make(map[domain.ClientID]core.ClientConn)}
}

func (n *Notifier) Bind(cid domain.ClientID, conn core.ClientConn) {
	if conn == nil {
		panic("notifier: nil conn")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conns[cid] = conn
}

func (n *Notifier) Unbind(cid domain.ClientID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.conns, cid)
}

func (n *Notifier) push(cid domain.ClientID, v any) {
	n.mu.RLock()
	conn, ok := n.conns[cid]
	n.mu.RUnlock()
	if !ok {
		log.Debug().Str("module", "rpc.notifier").Str("client", string(cid)).Msg("push for unknown client dropped")
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "rpc.notifier").Msg("push marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "rpc.notifier").Str("client", string(cid)).Msg("push dropped")
	}
}

func (n *Notifier) SetInterpretationState(cid domain.ClientID, active bool) {
	n.push(cid, struct {
		Type   string `json:"type"`
		Active bool   `json:"active"`
	}{Type: "set_interpretation_state", Active: active})
}

func (n *Notifier) UpdateCachedSourceState(cid domain.ClientID, id domain.CallID, snap domain.ConferenceSnapshot) {
	n.push(cid, struct {
		Type  string                    `json:"type"`
		Call  string                    `json:"call"`
		State domain.ConferenceSnapshot `json:"state"`
	}{Type: "update_cached_source_state", Call: string(id), State: snap})
}

func (n *Notifier) SetCachedAutoAnswerState(cid domain.ClientID, enabled bool) {
	n.push(cid, struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	}{Type: "set_cached_auto_answer_state", Enabled: enabled})
}

func (n *Notifier) SetCachedDoNotDisturbState(cid domain.ClientID, enabled bool) {
	n.push(cid, struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	}{Type: "set_cached_do_not_disturb_state", Enabled: enabled})
}

func (n *Notifier) SetCachedPrivacyMuteState(cid domain.ClientID, enabled bool) {
	n.push(cid, struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	}{Type: "set_cached_privacy_mute_state", Enabled: enabled})
}
