// Package booth contains adapters that expose interpreter stations to the
// core. The simulated adapter stands in for the vendor drivers (Cisco,
// Polycom, Zoom, Vaddio) that live outside this repository: it runs
// scripted call lifecycles over the same BoothAdapter contract.
package booth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

var (
	ErrCallGone      = errors.New("call no longer active")
	ErrBadTransition = errors.New("invalid status transition")
)

// Sim is an in-process booth adapter. A positive progress interval makes
// dialed calls walk Dialing→Ringing→Connecting→Connected on their own;
// zero leaves every transition to explicit calls, which is what the tests
// use.
type Sim struct {
	name     string
	progress time.Duration

	mu      sync.Mutex
	nextKey int
	calls   map[string]*simCall
	order   []string
	auto    bool
	dnd     bool
	privacy bool
	nextSub int
	subs    map[int]func(core.SourceEvent)
}

func NewSim(name string, progress time.Duration) *Sim {
	return &Sim{
		name:     name,
		progress: progress,
		calls:    make(map[string]*simCall),
		subs:     make(map[int]func(core.SourceEvent)),
	}
}

// simCall implements core.CallControl. All state is guarded by the
// owning Sim's mutex.
type simCall struct {
	booth *Sim

	key       string
	name      string
	number    string
	callType  domain.CallType
	direction domain.CallDirection
	status    domain.CallStatus
	muted     bool
	start     time.Time
	end       time.Time
}

func (c *simCall) Key() string { return c.key }

func (c *simCall) Snapshot() domain.ConferenceSnapshot {
	c.booth.mu.Lock()
	defer c.booth.mu.Unlock()
	return c.snapshotLocked()
}

// snapshotLocked builds the wire value for this leg: the far end plus the
// interpreter's own (self) participant.
func (c *simCall) snapshotLocked() domain.ConferenceSnapshot {
	features := domain.FeatureHold | domain.FeatureResume | domain.FeatureDTMF | domain.FeatureHangup | domain.FeatureAnswer
	return domain.ConferenceSnapshot{
		Name:      c.name,
		Number:    c.number,
		Status:    c.status,
		CallType:  c.callType,
		Recording: domain.RecordingNone,
		Features:  features,
		StartTime: c.start,
		EndTime:   c.end,
		Participants: []domain.ParticipantSnapshot{
			{
				Name:      c.name,
				Number:    c.number,
				CallType:  c.callType,
				Status:    c.status,
				Direction: c.direction,
				Muted:     c.muted,
				Features:  features,
			},
			{
				Name:      c.booth.name,
				Number:    "",
				CallType:  c.callType,
				Status:    c.status,
				Direction: c.direction,
				Muted:     c.booth.privacy,
				Self:      true,
				Host:      true,
				Features:  features,
			},
		},
	}
}

func (c *simCall) Answer() error {
	return c.booth.transition(c.key, domain.StatusRinging, domain.StatusConnected)
}

func (c *simCall) Hold() error {
	return c.booth.transition(c.key, domain.StatusConnected, domain.StatusOnHold)
}

func (c *simCall) Resume() error {
	return c.booth.transition(c.key, domain.StatusOnHold, domain.StatusConnected)
}

func (c *simCall) SendDTMF(digits string) error {
	c.booth.mu.Lock()
	_, ok := c.booth.calls[c.key]
	c.booth.mu.Unlock()
	if !ok {
		return ErrCallGone
	}
	log.Debug().Str("module", "booth.sim").Str("booth", c.booth.name).Str("digits", digits).Msg("dtmf sent")
	return nil
}

func (c *simCall) Hangup() error {
	c.booth.mu.Lock()
	call, ok := c.booth.calls[c.key]
	if !ok {
		c.booth.mu.Unlock()
		return ErrCallGone
	}
	call.status = domain.StatusDisconnecting
	snap := call.snapshotLocked()
	c.booth.mu.Unlock()
	c.booth.emit(core.SourceEvent{Kind: core.SourceUpdated, Call: call, Snapshot: snap})

	c.booth.finish(c.key)
	return nil
}

// Calls lists the live legs in creation order.
func (b *Sim) Calls() []core.CallControl {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.CallControl, 0, len(b.order))
	for _, key := range b.order {
		if call, ok := b.calls[key]; ok {
			out = append(out, call)
		}
	}
	return out
}

// Dial starts an outgoing leg in Dialing state.
func (b *Sim) Dial(number string, callType domain.CallType) error {
	if number == "" {
		return errors.New("empty number")
	}
	b.mu.Lock()
	b.nextKey++
	call := &simCall{
		booth:     b,
		key:       fmt.Sprintf("%s-%d", b.name, b.nextKey),
		name:      number,
		number:    number,
		callType:  callType,
		direction: domain.DirectionOutgoing,
		status:    domain.StatusDialing,
		start:     time.Now(),
	}
	b.calls[call.key] = call
	b.order = append(b.order, call.key)
	snap := call.snapshotLocked()
	b.mu.Unlock()

	log.Info().Str("module", "booth.sim").Str("booth", b.name).Str("number", number).Msg("dialing")
	b.emit(core.SourceEvent{Kind: core.SourceAdded, Call: call, Snapshot: snap})

	if b.progress > 0 {
		go b.walk(call.key, domain.StatusRinging, domain.StatusConnecting, domain.StatusConnected)
	}
	return nil
}

// AddIncomingCall injects a ringing inbound leg, as a vendor driver would
// on an incoming INVITE. Auto-answer connects it immediately; DND
// rejects it outright.
func (b *Sim) AddIncomingCall(name, number string, callType domain.CallType) core.CallControl {
	b.mu.Lock()
	if b.dnd {
		b.mu.Unlock()
		log.Info().Str("module", "booth.sim").Str("booth", b.name).Str("number", number).Msg("incoming rejected, do-not-disturb")
		return nil
	}
	b.nextKey++
	status := domain.StatusRinging
	if b.auto {
		status = domain.StatusConnected
	}
	call := &simCall{
		booth:     b,
		key:       fmt.Sprintf("%s-%d", b.name, b.nextKey),
		name:      name,
		number:    number,
		callType:  callType,
		direction: domain.DirectionIncoming,
		status:    status,
		start:     time.Now(),
	}
	b.calls[call.key] = call
	b.order = append(b.order, call.key)
	snap := call.snapshotLocked()
	b.mu.Unlock()

	b.emit(core.SourceEvent{Kind: core.SourceAdded, Call: call, Snapshot: snap})
	return call
}

// SetCallStatus forces a leg's status. Test hook and manual progress
// driver; a terminal status removes the leg.
func (b *Sim) SetCallStatus(key string, status domain.CallStatus) error {
	if status.Terminal() {
		return b.finish(key)
	}
	b.mu.Lock()
	call, ok := b.calls[key]
	if !ok {
		b.mu.Unlock()
		return ErrCallGone
	}
	call.status = status
	snap := call.snapshotLocked()
	b.mu.Unlock()
	b.emit(core.SourceEvent{Kind: core.SourceUpdated, Call: call, Snapshot: snap})
	return nil
}

func (b *Sim) SetAutoAnswer(enabled bool) error {
	b.setProperty(&b.auto, core.PropAutoAnswer, enabled)
	return nil
}

func (b *Sim) SetDoNotDisturb(enabled bool) error {
	b.setProperty(&b.dnd, core.PropDoNotDisturb, enabled)
	return nil
}

func (b *Sim) SetPrivacyMute(enabled bool) error {
	b.setProperty(&b.privacy, core.PropPrivacyMute, enabled)
	return nil
}

func (b *Sim) setProperty(field *bool, prop core.BoothProperty, enabled bool) {
	b.mu.Lock()
	changed := *field != enabled
	*field = enabled
	b.mu.Unlock()
	if changed {
		b.emit(core.SourceEvent{Kind: core.BoothPropertyChanged, Property: prop, Enabled: enabled})
	}
}

func (b *Sim) AutoAnswer() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auto
}

func (b *Sim) DoNotDisturb() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dnd
}

func (b *Sim) PrivacyMute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.privacy
}

func (b *Sim) Subscribe(fn func(core.SourceEvent)) func() {
	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// emit fans the event out to subscribers outside the booth lock.
func (b *Sim) emit(ev core.SourceEvent) {
	b.mu.Lock()
	fns := make([]func(core.SourceEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// transition applies from→to atomically; anything else is rejected so
// commands racing a hangup fail cleanly instead of reviving a dead leg.
func (b *Sim) transition(key string, from, to domain.CallStatus) error {
	b.mu.Lock()
	call, ok := b.calls[key]
	if !ok {
		b.mu.Unlock()
		return ErrCallGone
	}
	if call.status != from {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, call.status, to)
	}
	call.status = to
	snap := call.snapshotLocked()
	b.mu.Unlock()
	b.emit(core.SourceEvent{Kind: core.SourceUpdated, Call: call, Snapshot: snap})
	return nil
}

// finish drives a leg to Disconnected and removes it.
func (b *Sim) finish(key string) error {
	b.mu.Lock()
	call, ok := b.calls[key]
	if !ok {
		b.mu.Unlock()
		return ErrCallGone
	}
	call.status = domain.StatusDisconnected
	call.end = time.Now()
	delete(b.calls, key)
	snap := call.snapshotLocked()
	b.mu.Unlock()

	b.emit(core.SourceEvent{Kind: core.SourceRemoved, Call: call, Snapshot: snap})
	log.Info().Str("module", "booth.sim").Str("booth", b.name).Str("key", key).Msg("call finished")
	return nil
}

// walk advances a leg through the given statuses at the progress
// interval, stopping if the leg is hung up underneath.
func (b *Sim) walk(key string, statuses ...domain.CallStatus) {
	for _, status := range statuses {
		time.Sleep(b.progress)
		if err := b.SetCallStatus(key, status); err != nil {
			return
		}
	}
}
