package rpc

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/domain"
)

func (ctl *Controller) handleDial(cid domain.ClientID, c *WsConn, data []byte) {
	type payload struct {
		Type     string `json:"type"`
		Room     int    `json:"room"`
		Number   string `json:"number"`
		CallType string `json:"call_type,omitempty"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("bad dial payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.Number == "" {
		ctl.sendError(c, "empty number")
		return
	}

	log.Info().Str("module", "rpc").Str("client", string(cid)).Int("room", p.Room).Str("number", p.Number).Msg("dial")
	ctl.Engine.Dial(domain.RoomID(p.Room), p.Number, domain.CallType(p.CallType))
}

func (ctl *Controller) handleSetProperty(cid domain.ClientID, c *WsConn, data []byte, what string) {
	type payload struct {
		Type    string `json:"type"`
		Room    int    `json:"room"`
		Enabled bool   `json:"enabled"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "rpc").Str("op", what).Msg("bad property payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	rid := domain.RoomID(p.Room)
	switch what {
	case "set_auto_answer":
		ctl.Engine.SetAutoAnswer(rid, p.Enabled)
	case "set_do_not_disturb":
		ctl.Engine.SetDoNotDisturb(rid, p.Enabled)
	case "set_privacy_mute":
		ctl.Engine.SetPrivacyMute(rid, p.Enabled)
	}
}

func (ctl *Controller) handleCallCommand(cid domain.ClientID, c *WsConn, data []byte, what string) {
	type payload struct {
		Type string `json:"type"`
		Room int    `json:"room"`
		Call string `json:"call"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "rpc").Str("op", what).Msg("bad call payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	rid := domain.RoomID(p.Room)
	id := domain.CallID(p.Call)
	switch what {
	case "answer":
		ctl.Engine.Answer(rid, id)
	case "hold_enable":
		ctl.Engine.HoldEnable(rid, id)
	case "hold_resume":
		ctl.Engine.HoldResume(rid, id)
	case "end_call":
		ctl.Engine.EndCall(rid, id)
	}
}

func (ctl *Controller) handleSendDTMF(cid domain.ClientID, c *WsConn, data []byte) {
	type payload struct {
		Type   string `json:"type"`
		Room   int    `json:"room"`
		Call   string `json:"call"`
		Digits string `json:"digits"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("bad send_dtmf payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.Digits == "" {
		ctl.sendError(c, "empty digits")
		return
	}

	ctl.Engine.SendDTMF(domain.RoomID(p.Room), domain.CallID(p.Call), p.Digits)
}
