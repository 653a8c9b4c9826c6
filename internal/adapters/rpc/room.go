package rpc

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/app"
	"github.com/dmaret/interp/internal/domain"
)

func (ctl *Controller) handleRegisterRoom(cid domain.ClientID, c *WsConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room int    `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("bad register_room payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	rid := domain.RoomID(p.Room)
	if err := ctl.Engine.RegisterRoom(cid, rid); err != nil {
		if errors.Is(err, app.ErrAlreadyRegistered) {
			ctl.sendError(c, "already_registered")
		} else {
			ctl.sendError(c, "register_failed")
		}
		return
	}

	log.Info().Str("module", "rpc").Str("client", string(cid)).Int("room", p.Room).Msg("room registered")
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
		Room int    `json:"room"`
	}{Type: "room_registered", Room: p.Room})
}

func (ctl *Controller) handleUnregisterRoom(cid domain.ClientID, c *WsConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room int    `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("bad unregister_room payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	ctl.Engine.UnregisterRoom(cid, domain.RoomID(p.Room))
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
		Room int    `json:"room"`
	}{Type: "room_unregistered", Room: p.Room})
}
