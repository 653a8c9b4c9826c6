package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/domain"
)

// Conn is one room's leg of the procedure channel. It registers the room
// id, forwards control commands, and keeps the cached server state: the
// interpretation flag, the booth-level booleans and one reconstructed
// Conference per pushed call id.
type Conn struct {
	ws   *websocket.Conn
	room domain.RoomID

	writeMu sync.Mutex

	mu           sync.Mutex
	active       bool
	autoAnswer   bool
	doNotDisturb bool
	privacyMute  bool
	confs        map[string]*Conference

	onState      []func(active bool)
	onConference []func(callID string, conf *Conference)
}

// Dial connects to the server's room endpoint, e.g.
// ws://host:8080/api/ws/room.
func Dial(ctx context.Context, url string, room domain.RoomID) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		ws:    ws,
		room:  room,
		confs: make(map[string]*Conference),
	}
	if err := c.send(map[string]any{"type": "register_room", "room": int(room)}); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return c, nil
}

func (c *Conn) Close() {
	_ = c.ws.Close()
}

// Run reads pushes until the connection drops or ctx is canceled.
func (c *Conn) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = c.ws.Close()
	}()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.dispatch(data)
	}
}

func (c *Conn) send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// UnregisterRoom gives the room id back without dropping the socket.
func (c *Conn) UnregisterRoom() error {
	return c.send(map[string]any{"type": "unregister_room", "room": int(c.room)})
}

func (c *Conn) DialNumber(number string, callType domain.CallType) error {
	if number == "" {
		return errors.New("empty number")
	}
	return c.send(map[string]any{"type": "dial", "room": int(c.room), "number": number, "call_type": string(callType)})
}

func (c *Conn) SetAutoAnswer(enabled bool) error {
	return c.send(map[string]any{"type": "set_auto_answer", "room": int(c.room), "enabled": enabled})
}

func (c *Conn) SetDoNotDisturb(enabled bool) error {
	return c.send(map[string]any{"type": "set_do_not_disturb", "room": int(c.room), "enabled": enabled})
}

func (c *Conn) SetPrivacyMute(enabled bool) error {
	return c.send(map[string]any{"type": "set_privacy_mute", "room": int(c.room), "enabled": enabled})
}

func (c *Conn) Answer(callID string) error {
	return c.send(map[string]any{"type": "answer", "room": int(c.room), "call": callID})
}

func (c *Conn) HoldEnable(callID string) error {
	return c.send(map[string]any{"type": "hold_enable", "room": int(c.room), "call": callID})
}

func (c *Conn) HoldResume(callID string) error {
	return c.send(map[string]any{"type": "hold_resume", "room": int(c.room), "call": callID})
}

func (c *Conn) SendDTMF(callID, digits string) error {
	return c.send(map[string]any{"type": "send_dtmf", "room": int(c.room), "call": callID, "digits": digits})
}

func (c *Conn) EndCall(callID string) error {
	return c.send(map[string]any{"type": "end_call", "room": int(c.room), "call": callID})
}

// OnInterpretationState registers a callback for active/inactive flips.
func (c *Conn) OnInterpretationState(fn func(active bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

// OnConferenceUpdated registers a callback raised after a snapshot is
// applied to the call's conference.
func (c *Conn) OnConferenceUpdated(fn func(callID string, conf *Conference)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConference = append(c.onConference, fn)
}

func (c *Conn) InterpretationActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Conn) AutoAnswer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoAnswer
}

func (c *Conn) DoNotDisturb() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doNotDisturb
}

func (c *Conn) PrivacyMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.privacyMute
}

// Conference returns the reconstructed graph for a pushed call id.
func (c *Conn) Conference(callID string) (*Conference, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conf, ok := c.confs[callID]
	return conf, ok
}

// Conferences returns the currently cached call ids.
func (c *Conn) Conferences() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.confs))
	for id := range c.confs {
		out = append(out, id)
	}
	return out
}

func (c *Conn) dispatch(data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad push json")
		return
	}

	switch env.Type {
	case "set_interpretation_state":
		c.handleInterpretationState(data)
	case "update_cached_source_state":
		c.handleSourceState(data)
	case "set_cached_auto_answer_state":
		c.handleCachedBool(data, &c.autoAnswer)
	case "set_cached_do_not_disturb_state":
		c.handleCachedBool(data, &c.doNotDisturb)
	case "set_cached_privacy_mute_state":
		c.handleCachedBool(data, &c.privacyMute)
	case "room_registered", "room_unregistered", "pong":
		// acks, nothing to apply
	case "error":
		var p struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &p)
		log.Warn().Str("module", "client").Str("error", p.Error).Msg("server rejected procedure")
	default:
		log.Warn().Str("module", "client").Str("type", env.Type).Msg("unknown push")
	}
}

func (c *Conn) handleInterpretationState(data []byte) {
	var p struct {
		Active bool `json:"active"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad interpretation state payload")
		return
	}

	c.mu.Lock()
	c.active = p.Active
	if !p.Active {
		// Cached call state belongs to the binding that just ended;
		// the next binding's catch-up sync repopulates it.
		c.confs = make(map[string]*Conference)
	}
	fns := c.onState
	c.mu.Unlock()

	for _, fn := range fns {
		fn(p.Active)
	}
}

func (c *Conn) handleSourceState(data []byte) {
	var p struct {
		Call  string                    `json:"call"`
		State domain.ConferenceSnapshot `json:"state"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad source state payload")
		return
	}

	c.mu.Lock()
	conf, ok := c.confs[p.Call]
	if !ok {
		conf = NewConference()
		c.confs[p.Call] = conf
	}
	if p.State.Status.Terminal() {
		delete(c.confs, p.Call)
	}
	fns := c.onConference
	c.mu.Unlock()

	conf.UpdateFromConferenceState(p.State)
	for _, fn := range fns {
		fn(p.Call, conf)
	}
}

func (c *Conn) handleCachedBool(data []byte, field *bool) {
	var p struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad cached state payload")
		return
	}
	c.mu.Lock()
	*field = p.Enabled
	c.mu.Unlock()
}
