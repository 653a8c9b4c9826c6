package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "rpc").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "rpc").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "rpc").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "rpc").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ClientID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "rpc").Str("client", string(cid)).Msg("readPump closing")
		// Disconnect cleanup happens before the conn goes away so the
		// room cannot stay bound to a booth.
		ctl.Engine.OnClientDisconnect(cid)
		ctl.Notifier.Unbind(cid)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "rpc").Str("client", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "rpc").Str("client", string(cid)).Msg("readPump read error")
				return
			}
			ctl.dispatch(cid, c, data)
		}
	}
}

func (ctl *Controller) dispatch(cid domain.ClientID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("bad json")
		return
	}

	switch env.Type {
	case "register_room":
		ctl.handleRegisterRoom(cid, c, data)
	case "unregister_room":
		ctl.handleUnregisterRoom(cid, c, data)
	case "dial":
		ctl.handleDial(cid, c, data)
	case "set_auto_answer":
		ctl.handleSetProperty(cid, c, data, "set_auto_answer")
	case "set_do_not_disturb":
		ctl.handleSetProperty(cid, c, data, "set_do_not_disturb")
	case "set_privacy_mute":
		ctl.handleSetProperty(cid, c, data, "set_privacy_mute")
	case "answer":
		ctl.handleCallCommand(cid, c, data, "answer")
	case "hold_enable":
		ctl.handleCallCommand(cid, c, data, "hold_enable")
	case "hold_resume":
		ctl.handleCallCommand(cid, c, data, "hold_resume")
	case "end_call":
		ctl.handleCallCommand(cid, c, data, "end_call")
	case "send_dtmf":
		ctl.handleSendDTMF(cid, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "rpc").Str("type", env.Type).Msg("unknown procedure")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *WsConn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}

func (ctl *Controller) handlePing(c *WsConn) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
