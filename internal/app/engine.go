package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

// Engine is the routing policy layer: it owns begin/end interpretation,
// enforces at-most-one-booth-per-room and fans room-issued control
// commands out to the bound booth. Externally triggerable failures
// (unknown ids, stale pairs, races) are logged no-ops; nothing crosses
// the channel as an error.
type Engine struct {
	dir      *Directory
	notifier core.RoomNotifier
	bcast    *Broadcaster
}

func NewEngine(dir *Directory, notifier core.RoomNotifier, bcast *Broadcaster) *Engine {
	if dir == nil || notifier == nil || bcast == nil {
		panic("engine: nil dependency")
	}
	return &Engine{dir: dir, notifier: notifier, bcast: bcast}
}

// RegisterRoom maps a connected client to its room id.
func (e *Engine) RegisterRoom(cid domain.ClientID, rid domain.RoomID) error {
	if err := e.dir.RegisterRoom(cid, rid); err != nil {
		log.Warn().Str("module", "app.engine").Str("client", string(cid)).Int("room", int(rid)).Err(err).Msg("register rejected")
		return err
	}
	return nil
}

// UnregisterRoom drops the client↔room mapping. If the room was bound the
// binding ends with it and the still-connected client is told so.
func (e *Engine) UnregisterRoom(cid domain.ClientID, rid domain.RoomID) {
	_, hadBinding, err := e.dir.UnregisterRoom(cid, rid)
	if err != nil {
		log.Warn().Str("module", "app.engine").Str("client", string(cid)).Int("room", int(rid)).Msg("unregister for unknown mapping")
		return
	}
	if hadBinding {
		e.notifier.SetInterpretationState(cid, false)
	}
}

// OnClientDisconnect unregisters whatever the client held, synchronously
// with the mapping removal, so a crashed room never stays bound.
func (e *Engine) OnClientDisconnect(cid domain.ClientID) {
	rid, bid, hadRoom, hadBinding := e.dir.UnregisterClient(cid)
	if hadRoom {
		log.Info().Str("module", "app.engine").Str("client", string(cid)).Int("room", int(rid)).Int("booth", int(bid)).Bool("was_bound", hadBinding).Msg("client disconnected, cleaned up")
	}
}

// BeginInterpretation binds a booth to a room. Binding to the already
// bound booth is a no-op. An existing different binding is torn down
// first, so bindings are exchanged, never leaked. On success the room's
// client is told interpretation is active and receives a catch-up sync.
func (e *Engine) BeginInterpretation(rid domain.RoomID, bid domain.BoothID) {
	if cur, ok := e.dir.BoothOf(rid); ok && cur == bid {
		log.Debug().Str("module", "app.engine").Int("room", int(rid)).Int("booth", int(bid)).Msg("already bound, no-op")
		return
	}

	prev, hadPrev, err := e.dir.Bind(rid, bid)
	if err != nil {
		log.Warn().Str("module", "app.engine").Int("room", int(rid)).Int("booth", int(bid)).Err(err).Msg("begin interpretation rejected")
		return
	}

	cid, ok := e.dir.ClientOf(rid)
	if !ok {
		// Client raced away between bind and resolve; disconnect
		// cleanup will drop the binding.
		return
	}
	if hadPrev {
		log.Info().Str("module", "app.engine").Int("room", int(rid)).Int("prev_booth", int(prev)).Msg("previous binding torn down")
		e.notifier.SetInterpretationState(cid, false)
	}
	e.notifier.SetInterpretationState(cid, true)
	e.bcast.CatchUp(bid, cid)
	log.Info().Str("module", "app.engine").Int("room", int(rid)).Int("booth", int(bid)).Msg("interpretation began")
}

// EndInterpretation removes the binding iff the pair still matches; a
// stale command after a race is a no-op. Booth calls are untouched.
func (e *Engine) EndInterpretation(rid domain.RoomID, bid domain.BoothID) {
	if !e.dir.Unbind(rid, bid) {
		log.Warn().Str("module", "app.engine").Int("room", int(rid)).Int("booth", int(bid)).Msg("stale end interpretation, no-op")
		return
	}
	if cid, ok := e.dir.ClientOf(rid); ok {
		e.notifier.SetInterpretationState(cid, false)
	}
	log.Info().Str("module", "app.engine").Int("room", int(rid)).Int("booth", int(bid)).Msg("interpretation ended")
}

func (e *Engine) AvailableRoomIDs() []domain.RoomID {
	return e.dir.AvailableRooms()
}

func (e *Engine) AvailableBoothIDs() []domain.BoothID {
	return e.dir.AvailableBooths()
}

// BoothIDs lists the whole booth inventory, bound or not.
func (e *Engine) BoothIDs() []domain.BoothID {
	return e.dir.Booths()
}

// Dial places a call from the booth bound to the room.
func (e *Engine) Dial(rid domain.RoomID, number string, ct domain.CallType) {
	adapter, bid, ok := e.dir.AdapterForRoom(rid)
	if !ok {
		log.Warn().Str("module", "app.engine").Int("room", int(rid)).Msg("dial for unbound room")
		return
	}
	if ct == "" {
		ct = domain.CallTypeAudio
	}
	if err := adapter.Dial(number, ct); err != nil {
		log.Error().Str("module", "app.engine").Int("booth", int(bid)).Err(err).Msg("dial failed")
	}
}

func (e *Engine) SetAutoAnswer(rid domain.RoomID, enabled bool) {
	e.setBoothProperty(rid, core.PropAutoAnswer, enabled)
}

func (e *Engine) SetDoNotDisturb(rid domain.RoomID, enabled bool) {
	e.setBoothProperty(rid, core.PropDoNotDisturb, enabled)
}

func (e *Engine) SetPrivacyMute(rid domain.RoomID, enabled bool) {
	e.setBoothProperty(rid, core.PropPrivacyMute, enabled)
}

func (e *Engine) setBoothProperty(rid domain.RoomID, prop core.BoothProperty, enabled bool) {
	adapter, bid, ok := e.dir.AdapterForRoom(rid)
	if !ok {
		log.Warn().Str("module", "app.engine").Int("room", int(rid)).Str("property", string(prop)).Msg("property set for unbound room")
		return
	}
	var err error
	switch prop {
	case core.PropAutoAnswer:
		err = adapter.SetAutoAnswer(enabled)
	case core.PropDoNotDisturb:
		err = adapter.SetDoNotDisturb(enabled)
	case core.PropPrivacyMute:
		err = adapter.SetPrivacyMute(enabled)
	}
	if err != nil {
		log.Error().Str("module", "app.engine").Int("booth", int(bid)).Str("property", string(prop)).Err(err).Msg("property set failed")
	}
}

func (e *Engine) Answer(rid domain.RoomID, id domain.CallID) {
	e.withCall(rid, id, "answer", core.CallControl.Answer)
}

func (e *Engine) HoldEnable(rid domain.RoomID, id domain.CallID) {
	e.withCall(rid, id, "hold", core.CallControl.Hold)
}

func (e *Engine) HoldResume(rid domain.RoomID, id domain.CallID) {
	e.withCall(rid, id, "resume", core.CallControl.Resume)
}

func (e *Engine) EndCall(rid domain.RoomID, id domain.CallID) {
	e.withCall(rid, id, "hangup", core.CallControl.Hangup)
}

func (e *Engine) SendDTMF(rid domain.RoomID, id domain.CallID, digits string) {
	e.withCall(rid, id, "dtmf", func(c core.CallControl) error {
		return c.SendDTMF(digits)
	})
}

// withCall resolves room→booth→call and applies op. Unknown ids are
// logged no-ops; a stale call id after disconnect is expected during
// races and handled the same way.
func (e *Engine) withCall(rid domain.RoomID, id domain.CallID, what string, op func(core.CallControl) error) {
	_, bid, ok := e.dir.AdapterForRoom(rid)
	if !ok {
		log.Warn().Str("module", "app.engine").Int("room", int(rid)).Str("op", what).Msg("call command for unbound room")
		return
	}
	call, ok := e.bcast.Call(bid, id)
	if !ok {
		log.Warn().Str("module", "app.engine").Int("booth", int(bid)).Str("call", string(id)).Str("op", what).Msg("call command for unknown call")
		return
	}
	if err := op(call); err != nil {
		log.Error().Str("module", "app.engine").Int("booth", int(bid)).Str("call", string(id)).Str("op", what).Err(err).Msg("call command failed")
	}
}
