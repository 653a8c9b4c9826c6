package domain

import "time"

// ConferenceSnapshot is an immutable copy of a call's state at a point in
// time. It is a value, not a handle: it never carries live references and
// is the only call representation that crosses the wire.
type ConferenceSnapshot struct {
	Name         string                `json:"name"`
	Number       string                `json:"number"`
	Status       CallStatus            `json:"status"`
	CallType     CallType              `json:"call_type"`
	Recording    RecordingStatus       `json:"recording"`
	Features     FeatureFlags          `json:"features"`
	StartTime    time.Time             `json:"start_time,omitzero"`
	EndTime      time.Time             `json:"end_time,omitzero"`
	Participants []ParticipantSnapshot `json:"participants"`
}

// ParticipantSnapshot is the wire copy of one participant.
type ParticipantSnapshot struct {
	Name      string        `json:"name"`
	Number    string        `json:"number"`
	CallType  CallType      `json:"call_type"`
	Status    CallStatus    `json:"status"`
	Direction CallDirection `json:"direction"`
	Muted     bool          `json:"muted"`
	Self      bool          `json:"self"`
	Host      bool          `json:"host"`
	Features  FeatureFlags  `json:"features"`
}

// Key returns the participant's identity key, see ParticipantKey.
func (p ParticipantSnapshot) Key() string {
	return ParticipantKey(p.Name, p.Number)
}

// ParticipantKey derives the stable identity of a participant from the
// only fields guaranteed across snapshots. Two participants with equal
// keys inside one conference are the same logical participant; a changed
// key means remove+add, never an in-place rename.
func ParticipantKey(name, number string) string {
	return name + "\x00" + number
}

// Sanitize clamps participant features to the wire-legal subset. Applied
// by the broadcaster before a snapshot leaves the server.
func (c ConferenceSnapshot) Sanitize() ConferenceSnapshot {
	out := c
	out.Participants = make([]ParticipantSnapshot, len(c.Participants))
	for i, p := range c.Participants {
		p.Features &= WireParticipantFeatures
		out.Participants[i] = p
	}
	return out
}
