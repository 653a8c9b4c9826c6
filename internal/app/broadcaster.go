package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

// corrKey pairs a booth with the adapter-local identity of a call leg.
type corrKey struct {
	booth domain.BoothID
	key   string
}

// Broadcaster turns booth source events into state pushes for the one
// client bound to each booth's room. Events on unbound booths are
// dropped, not buffered: staleness is self-correcting on the next change
// or on rebind catch-up sync.
type Broadcaster struct {
	dir      *Directory
	notifier core.RoomNotifier

	events  chan core.SourceEvent
	dropped atomic.Uint64

	mu      sync.Mutex
	corr    map[corrKey]domain.CallID
	refs    map[domain.BoothID]map[domain.CallID]core.CallControl
	cancels map[domain.BoothID]func()
}

const defaultEventBuffer = 256

func NewBroadcaster(dir *Directory, notifier core.RoomNotifier) *Broadcaster {
	if dir == nil || notifier == nil {
		panic("broadcaster: nil directory or notifier")
	}
	return &Broadcaster{
		dir:      dir,
		notifier: notifier,
		events:   make(chan core.SourceEvent, defaultEventBuffer),
		corr:     make(map[corrKey]domain.CallID),
		refs:     make(map[domain.BoothID]map[domain.CallID]core.CallControl),
		cancels:  make(map[domain.BoothID]func()),
	}
}

// Attach registers the booth in the directory and subscribes to its
// events. Detach undoes both.
func (b *Broadcaster) Attach(bid domain.BoothID, adapter core.BoothAdapter) {
	b.dir.AddBooth(bid, adapter)
	cancel := adapter.Subscribe(func(ev core.SourceEvent) {
		ev.Booth = bid
		b.Publish(ev)
	})
	b.mu.Lock()
	b.cancels[bid] = cancel
	b.mu.Unlock()
}

func (b *Broadcaster) Detach(bid domain.BoothID) {
	b.mu.Lock()
	cancel := b.cancels[bid]
	delete(b.cancels, bid)
	for k := range b.corr {
		if k.booth == bid {
			delete(b.corr, k)
		}
	}
	delete(b.refs, bid)
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.dir.RemoveBooth(bid)
}

// Publish enqueues an event, dropping it when the buffer is full. The
// next state change supersedes a missed one, so nothing is retried.
func (b *Broadcaster) Publish(ev core.SourceEvent) {
	select {
	case b.events <- ev:
	default:
		b.dropped.Add(1)
		log.Warn().Str("module", "app.broadcaster").Int("booth", int(ev.Booth)).Str("kind", string(ev.Kind)).Msg("event buffer full, dropped")
	}
}

// DroppedCount reports how many events were dropped at the buffer.
func (b *Broadcaster) DroppedCount() uint64 {
	return b.dropped.Load()
}

// Run consumes events until ctx is canceled. The single consumer
// serializes event handling with respect to the correlation table.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.broadcaster").Msg("run loop done")
			return
		case ev := <-b.events:
			b.handle(ev)
		}
	}
}

func (b *Broadcaster) handle(ev core.SourceEvent) {
	if ev.Kind == core.BoothPropertyChanged {
		b.forwardProperty(ev)
		return
	}
	if ev.Call == nil {
		log.Error().Str("module", "app.broadcaster").Str("kind", string(ev.Kind)).Msg("source event without call ref")
		return
	}

	k := corrKey{booth: ev.Booth, key: ev.Call.Key()}
	snap := ev.Snapshot

	b.mu.Lock()
	id, tracked := b.corr[k]
	switch {
	case ev.Kind == core.SourceAdded && !tracked:
		id = domain.CallID(uuid.NewString())
		b.corr[k] = id
		if b.refs[ev.Booth] == nil {
			b.refs[ev.Booth] = make(map[domain.CallID]core.CallControl)
		}
		b.refs[ev.Booth][id] = ev.Call
		tracked = true
	case !tracked:
		// Updates for an untracked key: the leg already reached its
		// terminal state and was released. Ignore.
		b.mu.Unlock()
		log.Debug().Str("module", "app.broadcaster").Int("booth", int(ev.Booth)).Str("kind", string(ev.Kind)).Msg("event for released call ignored")
		return
	}
	terminal := ev.Kind == core.SourceRemoved || snap.Status.Terminal()
	if terminal {
		delete(b.corr, k)
		delete(b.refs[ev.Booth], id)
	}
	b.mu.Unlock()

	if ev.Kind == core.SourceRemoved && !snap.Status.Terminal() {
		snap.Status = domain.StatusDisconnected
	}
	b.forwardSnapshot(ev.Booth, id, snap)
}

// forwardSnapshot resolves booth→room→client and sends outside any lock.
// A failed hop drops the event.
func (b *Broadcaster) forwardSnapshot(bid domain.BoothID, id domain.CallID, snap domain.ConferenceSnapshot) {
	cid, _, ok := b.dir.ClientForBooth(bid)
	if !ok {
		log.Debug().Str("module", "app.broadcaster").Int("booth", int(bid)).Msg("no bound client, snapshot dropped")
		return
	}
	b.notifier.UpdateCachedSourceState(cid, id, snap.Sanitize())
}

func (b *Broadcaster) forwardProperty(ev core.SourceEvent) {
	cid, _, ok := b.dir.ClientForBooth(ev.Booth)
	if !ok {
		return
	}
	switch ev.Property {
	case core.PropAutoAnswer:
		b.notifier.SetCachedAutoAnswerState(cid, ev.Enabled)
	case core.PropDoNotDisturb:
		b.notifier.SetCachedDoNotDisturbState(cid, ev.Enabled)
	case core.PropPrivacyMute:
		b.notifier.SetCachedPrivacyMuteState(cid, ev.Enabled)
	default:
		log.Warn().Str("module", "app.broadcaster").Str("property", string(ev.Property)).Msg("unknown booth property")
	}
}

// CatchUp pushes one snapshot for every call currently open in the booth
// to the given client. Used right after a binding is created so a room
// joining mid-call sees current state, not just future deltas.
func (b *Broadcaster) CatchUp(bid domain.BoothID, cid domain.ClientID) {
	adapter, ok := b.dir.Adapter(bid)
	if !ok {
		return
	}
	for _, call := range adapter.Calls() {
		snap := call.Snapshot()
		if snap.Status.Terminal() {
			continue
		}
		k := corrKey{booth: bid, key: call.Key()}
		b.mu.Lock()
		id, tracked := b.corr[k]
		if !tracked {
			id = domain.CallID(uuid.NewString())
			b.corr[k] = id
			if b.refs[bid] == nil {
				b.refs[bid] = make(map[domain.CallID]core.CallControl)
			}
			b.refs[bid][id] = call
		}
		b.mu.Unlock()
		b.notifier.UpdateCachedSourceState(cid, id, snap.Sanitize())
	}

	// Booth-level properties are part of the catch-up too.
	b.notifier.SetCachedAutoAnswerState(cid, adapter.AutoAnswer())
	b.notifier.SetCachedDoNotDisturbState(cid, adapter.DoNotDisturb())
	b.notifier.SetCachedPrivacyMuteState(cid, adapter.PrivacyMute())
}

// Call resolves a server-issued call id back to the live control handle.
func (b *Broadcaster) Call(bid domain.BoothID, id domain.CallID) (core.CallControl, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call, ok := b.refs[bid][id]
	return call, ok
}
