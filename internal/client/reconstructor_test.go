package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaret/interp/internal/domain"
)

func snapWith(parts ...domain.ParticipantSnapshot) domain.ConferenceSnapshot {
	return domain.ConferenceSnapshot{
		Name:         "weekly sync",
		Status:       domain.StatusConnected,
		CallType:     domain.CallTypeAudio,
		Participants: parts,
	}
}

func part(name, number string) domain.ParticipantSnapshot {
	return domain.ParticipantSnapshot{Name: name, Number: number, Status: domain.StatusConnected}
}

func TestConferenceDiffsByParticipantKey(t *testing.T) {
	c := NewConference()

	var added, removed []string
	c.OnParticipantAdded(func(p *Participant) { added = append(added, p.Name) })
	c.OnParticipantRemoved(func(p *Participant) { removed = append(removed, p.Name) })

	c.UpdateFromConferenceState(snapWith(part("alice", "+1"), part("bob", "+2")))
	assert.Equal(t, []string{"alice", "bob"}, added)
	assert.Empty(t, removed)

	parts := c.Participants()
	require.Len(t, parts, 2)
	bob := parts[1]

	added, removed = nil, nil
	c.UpdateFromConferenceState(snapWith(part("bob", "+2"), part("carol", "+3")))

	assert.Equal(t, []string{"alice"}, removed)
	assert.Equal(t, []string{"carol"}, added)

	// Bob survived: same object, updated in place.
	parts = c.Participants()
	require.Len(t, parts, 2)
	assert.Same(t, bob, parts[0])
}

func TestConferenceChangedKeyIsRemovePlusAdd(t *testing.T) {
	c := NewConference()
	c.UpdateFromConferenceState(snapWith(part("alice", "+1")))
	old := c.Participants()[0]

	var events []string
	c.OnParticipantAdded(func(p *Participant) { events = append(events, "add:"+p.Number) })
	c.OnParticipantRemoved(func(p *Participant) { events = append(events, "remove:"+p.Number) })

	// Same display name, different number: a different participant.
	c.UpdateFromConferenceState(snapWith(part("alice", "+9")))

	assert.Equal(t, []string{"remove:+1", "add:+9"}, events)
	assert.NotSame(t, old, c.Participants()[0])
}

func TestConferenceRemovalsPrecedeAdditions(t *testing.T) {
	c := NewConference()
	c.UpdateFromConferenceState(snapWith(part("alice", "+1")))

	var order []string
	c.OnParticipantAdded(func(p *Participant) { order = append(order, "add") })
	c.OnParticipantRemoved(func(p *Participant) { order = append(order, "remove") })

	c.UpdateFromConferenceState(snapWith(part("bob", "+2"), part("carol", "+3")))

	require.Equal(t, []string{"remove", "add", "add"}, order)
}

func TestConferenceEmptyParticipantListClears(t *testing.T) {
	c := NewConference()
	c.UpdateFromConferenceState(snapWith(part("alice", "+1"), part("bob", "+2")))

	var removed int
	c.OnParticipantRemoved(func(*Participant) { removed++ })

	c.UpdateFromConferenceState(snapWith())

	assert.Equal(t, 2, removed)
	assert.Empty(t, c.Participants())
}

func TestConferenceScalarsLastWriterWins(t *testing.T) {
	c := NewConference()
	c.UpdateFromConferenceState(domain.ConferenceSnapshot{
		Name:   "first",
		Status: domain.StatusRinging,
	})
	c.UpdateFromConferenceState(domain.ConferenceSnapshot{
		Name:      "second",
		Status:    domain.StatusConnected,
		Recording: domain.RecordingActive,
		Features:  domain.FeatureHold,
	})

	assert.Equal(t, "second", c.Name())
	assert.Equal(t, domain.StatusConnected, c.Status())
	assert.Equal(t, domain.RecordingActive, c.Recording())
	assert.True(t, c.Features().Has(domain.FeatureHold))
}

func TestConferenceDeduplicatesKeys(t *testing.T) {
	c := NewConference()

	var added int
	c.OnParticipantAdded(func(*Participant) { added++ })

	first := part("alice", "+1")
	second := part("alice", "+1")
	second.Muted = true
	c.UpdateFromConferenceState(snapWith(first, second))

	assert.Equal(t, 1, added)
	parts := c.Participants()
	require.Len(t, parts, 1)
	// Later entry wins for mutable fields.
	assert.True(t, parts[0].Muted)
}

func TestConferenceInPlaceUpdate(t *testing.T) {
	c := NewConference()
	c.UpdateFromConferenceState(snapWith(part("alice", "+1")))
	alice := c.Participants()[0]

	updated := part("alice", "+1")
	updated.Muted = true
	updated.Status = domain.StatusOnHold
	c.UpdateFromConferenceState(snapWith(updated))

	assert.Same(t, alice, c.Participants()[0])
	assert.True(t, alice.Muted)
	assert.Equal(t, domain.StatusOnHold, alice.Status)
}

func TestConferenceCallbackMayReenter(t *testing.T) {
	c := NewConference()

	// A handler reading back into the conference must not deadlock.
	c.OnParticipantAdded(func(*Participant) {
		_ = c.Participants()
		_ = c.Status()
	})

	c.UpdateFromConferenceState(snapWith(part("alice", "+1")))
	require.Len(t, c.Participants(), 1)
}
