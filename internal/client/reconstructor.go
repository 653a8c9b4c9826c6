// Package client is the room side of the procedure channel: a connection
// that registers the room, issues control commands, and rebuilds a local
// conference graph from the state snapshots the server pushes.
package client

import (
	"sync"
	"time"

	"github.com/dmaret/interp/internal/domain"
)

// Participant is the room-side mutable participant. Identity is the
// (name, number) key: those two fields never change in place, a changed
// key arrives as remove+add. Read it from the goroutine that applies
// updates (the connection's read loop) or from its notifications.
type Participant struct {
	Name      string
	Number    string
	CallType  domain.CallType
	Status    domain.CallStatus
	Direction domain.CallDirection
	Muted     bool
	Self      bool
	Host      bool
	Features  domain.FeatureFlags
}

func (p *Participant) Key() string {
	return domain.ParticipantKey(p.Name, p.Number)
}

func newParticipant(s domain.ParticipantSnapshot) *Participant {
	return &Participant{
		Name:      s.Name,
		Number:    s.Number,
		CallType:  s.CallType,
		Status:    s.Status,
		Direction: s.Direction,
		Muted:     s.Muted,
		Self:      s.Self,
		Host:      s.Host,
		Features:  s.Features,
	}
}

// Conference reconstructs one call's state from snapshots. Snapshots are
// values: the graph diffs by participant key, never by reference.
type Conference struct {
	mu        sync.Mutex
	name      string
	number    string
	status    domain.CallStatus
	callType  domain.CallType
	recording domain.RecordingStatus
	features  domain.FeatureFlags
	start     time.Time
	end       time.Time

	participants map[string]*Participant
	order        []string

	onAdded   []func(*Participant)
	onRemoved []func(*Participant)
}

func NewConference() *Conference {
	return &Conference{participants: make(map[string]*Participant)}
}

// OnParticipantAdded registers a callback for participants entering the
// conference. Callbacks run outside the internal critical section, so a
// handler may call back into the conference.
func (c *Conference) OnParticipantAdded(fn func(*Participant)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAdded = append(c.onAdded, fn)
}

func (c *Conference) OnParticipantRemoved(fn func(*Participant)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRemoved = append(c.onRemoved, fn)
}

// UpdateFromConferenceState applies one snapshot. Scalars are
// last-writer-wins. Participants are diffed by key: gone keys detach
// first, new keys attach after, surviving keys update in place. A
// snapshot without participants means "no participants", not "no
// change": it clears the set.
func (c *Conference) UpdateFromConferenceState(snap domain.ConferenceSnapshot) {
	c.mu.Lock()

	c.name = snap.Name
	c.number = snap.Number
	c.status = snap.Status
	c.callType = snap.CallType
	c.recording = snap.Recording
	c.features = snap.Features
	c.start = snap.StartTime
	c.end = snap.EndTime

	incoming := make(map[string]domain.ParticipantSnapshot, len(snap.Participants))
	incomingOrder := make([]string, 0, len(snap.Participants))
	for _, ps := range snap.Participants {
		key := ps.Key()
		if _, dup := incoming[key]; !dup {
			incomingOrder = append(incomingOrder, key)
		}
		incoming[key] = ps
	}

	// Removals are fully applied before any addition is raised.
	var removed []*Participant
	for key, p := range c.participants {
		if _, keep := incoming[key]; !keep {
			delete(c.participants, key)
			removed = append(removed, p)
		}
	}

	var added []*Participant
	order := make([]string, 0, len(incomingOrder))
	for _, key := range incomingOrder {
		ps := incoming[key]
		if p, ok := c.participants[key]; ok {
			p.CallType = ps.CallType
			p.Status = ps.Status
			p.Direction = ps.Direction
			p.Muted = ps.Muted
			p.Self = ps.Self
			p.Host = ps.Host
			p.Features = ps.Features
		} else {
			p := newParticipant(ps)
			c.participants[key] = p
			added = append(added, p)
		}
		order = append(order, key)
	}
	c.order = order

	onAdded := c.onAdded
	onRemoved := c.onRemoved
	c.mu.Unlock()

	// Notifications happen outside the lock: a handler calling back in
	// must not deadlock.
	for _, p := range removed {
		for _, fn := range onRemoved {
			fn(p)
		}
	}
	for _, p := range added {
		for _, fn := range onAdded {
			fn(p)
		}
	}
}

// Participants returns the current set in snapshot order.
func (c *Conference) Participants() []*Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Participant, 0, len(c.order))
	for _, key := range c.order {
		if p, ok := c.participants[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Conference) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Conference) Number() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.number
}

func (c *Conference) Status() domain.CallStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Conference) CallType() domain.CallType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callType
}

func (c *Conference) Recording() domain.RecordingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

func (c *Conference) Features() domain.FeatureFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.features
}

func (c *Conference) StartTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

func (c *Conference) EndTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end
}
