package app

import (
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrUnknownRoom       = errors.New("unknown room")
	ErrUnknownBooth      = errors.New("unknown booth")
	ErrBoothBusy         = errors.New("booth already bound")
)

// Directory is the single source of truth for who is talking to whom.
// It holds the forward maps only; reverse lookups (room→client,
// booth→room) are derived by scan so the two directions can never drift.
// One mutex guards every logical operation. The Directory raises no
// events; mutations become observable through the Engine and Broadcaster.
type Directory struct {
	mu       sync.RWMutex
	clients  map[domain.ClientID]domain.RoomID
	bindings map[domain.RoomID]domain.BoothID
	booths   map[domain.BoothID]core.BoothAdapter
}

func NewDirectory() *Directory {
	return &Directory{
		clients:  make(map[domain.ClientID]domain.RoomID),
		bindings: make(map[domain.RoomID]domain.BoothID),
		booths:   make(map[domain.BoothID]core.BoothAdapter),
	}
}

// AddBooth attaches an adapter under a booth id. A nil adapter is a
// programming error.
func (d *Directory) AddBooth(bid domain.BoothID, adapter core.BoothAdapter) {
	if adapter == nil {
		panic("directory: nil adapter")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.booths[bid] = adapter
	log.Info().Str("module", "app.directory").Int("booth", int(bid)).Msg("booth added")
}

// RemoveBooth detaches a booth and drops any binding pointing at it.
func (d *Directory) RemoveBooth(bid domain.BoothID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.booths, bid)
	for rid, b := range d.bindings {
		if b == bid {
			delete(d.bindings, rid)
		}
	}
	log.Info().Str("module", "app.directory").Int("booth", int(bid)).Msg("booth removed")
}

// RegisterRoom inserts client↔room. A client that is already mapped, or a
// room already claimed by another client, is rejected.
func (d *Directory) RegisterRoom(cid domain.ClientID, rid domain.RoomID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.clients[cid]; ok {
		return ErrAlreadyRegistered
	}
	for _, r := range d.clients {
		if r == rid {
			return ErrAlreadyRegistered
		}
	}
	d.clients[cid] = rid
	log.Info().Str("module", "app.directory").Str("client", string(cid)).Int("room", int(rid)).Msg("room registered")
	return nil
}

// UnregisterRoom removes client↔room and, if the room was bound, drops
// the binding. Returns the booth that was unbound, if any.
func (d *Directory) UnregisterRoom(cid domain.ClientID, rid domain.RoomID) (domain.BoothID, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if got, ok := d.clients[cid]; !ok || got != rid {
		return 0, false, ErrUnknownRoom
	}
	delete(d.clients, cid)
	bid, hadBinding := d.bindings[rid]
	delete(d.bindings, rid)
	log.Info().Str("module", "app.directory").Str("client", string(cid)).Int("room", int(rid)).Bool("was_bound", hadBinding).Msg("room unregistered")
	return bid, hadBinding, nil
}

// UnregisterClient is the disconnect path: whatever room the client held
// is unregistered and unbound in the same critical section, so a closed
// room can never stay bound to a booth.
func (d *Directory) UnregisterClient(cid domain.ClientID) (domain.RoomID, domain.BoothID, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rid, hadRoom := d.clients[cid]
	if !hadRoom {
		return 0, 0, false, false
	}
	delete(d.clients, cid)
	bid, hadBinding := d.bindings[rid]
	delete(d.bindings, rid)
	log.Info().Str("module", "app.directory").Str("client", string(cid)).Int("room", int(rid)).Bool("was_bound", hadBinding).Msg("client unregistered")
	return rid, bid, true, hadBinding
}

// Bind exchanges the room's binding for boothID atomically. Any previous
// booth for the room is returned so the caller can complete its teardown;
// bindings are exchanged, never leaked. Fails if the room has no
// connected client, the booth is unknown, or the booth is bound elsewhere.
func (d *Directory) Bind(rid domain.RoomID, bid domain.BoothID) (domain.BoothID, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.clientOfLocked(rid); !ok {
		return 0, false, ErrUnknownRoom
	}
	if _, ok := d.booths[bid]; !ok {
		return 0, false, ErrUnknownBooth
	}
	for r, b := range d.bindings {
		if b == bid && r != rid {
			return 0, false, ErrBoothBusy
		}
	}
	prev, hadPrev := d.bindings[rid]
	d.bindings[rid] = bid
	log.Info().Str("module", "app.directory").Int("room", int(rid)).Int("booth", int(bid)).Bool("exchanged", hadPrev).Msg("bound")
	return prev, hadPrev, nil
}

// Unbind removes the binding iff the exact pair still holds. A stale pair
// is a no-op.
func (d *Directory) Unbind(rid domain.RoomID, bid domain.BoothID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if got, ok := d.bindings[rid]; !ok || got != bid {
		return false
	}
	delete(d.bindings, rid)
	log.Info().Str("module", "app.directory").Int("room", int(rid)).Int("booth", int(bid)).Msg("unbound")
	return true
}

// RoomOf returns the room registered by a client.
func (d *Directory) RoomOf(cid domain.ClientID) (domain.RoomID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rid, ok := d.clients[cid]
	return rid, ok
}

// ClientOf returns the client connected for a room, derived by scan.
func (d *Directory) ClientOf(rid domain.RoomID) (domain.ClientID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clientOfLocked(rid)
}

// BoothOf returns the booth currently bound to a room.
func (d *Directory) BoothOf(rid domain.RoomID) (domain.BoothID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	bid, ok := d.bindings[rid]
	return bid, ok
}

// Adapter returns the adapter behind a booth id.
func (d *Directory) Adapter(bid domain.BoothID) (core.BoothAdapter, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.booths[bid]
	return a, ok
}

// ClientForBooth resolves booth→room→client in one locked hop. The
// broadcaster uses this to find the single delivery target for an event.
func (d *Directory) ClientForBooth(bid domain.BoothID) (domain.ClientID, domain.RoomID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for rid, b := range d.bindings {
		if b != bid {
			continue
		}
		if cid, ok := d.clientOfLocked(rid); ok {
			return cid, rid, true
		}
		return "", 0, false
	}
	return "", 0, false
}

// AdapterForRoom resolves room→booth→adapter in one locked hop, for
// room-issued control commands.
func (d *Directory) AdapterForRoom(rid domain.RoomID) (core.BoothAdapter, domain.BoothID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	bid, ok := d.bindings[rid]
	if !ok {
		return nil, 0, false
	}
	a, ok := d.booths[bid]
	if !ok {
		return nil, 0, false
	}
	return a, bid, true
}

// AvailableRooms lists rooms with a connected client and no binding.
func (d *Directory) AvailableRooms() []domain.RoomID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(d.clients))
	for _, rid := range d.clients {
		if _, bound := d.bindings[rid]; !bound {
			out = append(out, rid)
		}
	}
	slices.Sort(out)
	return out
}

// AvailableBooths lists booths not appearing as the value of any binding.
func (d *Directory) AvailableBooths() []domain.BoothID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	bound := make(map[domain.BoothID]struct{}, len(d.bindings))
	for _, bid := range d.bindings {
		bound[bid] = struct{}{}
	}
	out := make([]domain.BoothID, 0, len(d.booths))
	for bid := range d.booths {
		if _, ok := bound[bid]; !ok {
			out = append(out, bid)
		}
	}
	slices.Sort(out)
	return out
}

// Booths lists every attached booth id.
func (d *Directory) Booths() []domain.BoothID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.BoothID, 0, len(d.booths))
	for bid := range d.booths {
		out = append(out, bid)
	}
	slices.Sort(out)
	return out
}

// clientOfLocked derives room→client by scan. Caller holds the lock.
func (d *Directory) clientOfLocked(rid domain.RoomID) (domain.ClientID, bool) {
	for cid, r := range d.clients {
		if r == rid {
			return cid, true
		}
	}
	return "", false
}
