package core

import "github.com/dmaret/interp/internal/domain"

// CallControl is the live handle of one call leg inside a booth adapter.
// It never crosses the wire; the broadcaster converts it to snapshots.
type CallControl interface {
	// Key is the adapter-local stable identity of this leg, used by the
	// correlation table. Stable for the leg's lifetime, may be reused
	// by the adapter after the leg ends.
	Key() string
	Snapshot() domain.ConferenceSnapshot

	Answer() error
	Hold() error
	Resume() error
	SendDTMF(digits string) error
	Hangup() error
}

// BoothAdapter wraps one physical interpreter booth. Implementations own
// the vendor protocol; the core only sees calls, properties and events.
type BoothAdapter interface {
	Calls() []CallControl
	Dial(number string, callType domain.CallType) error

	SetAutoAnswer(enabled bool) error
	SetDoNotDisturb(enabled bool) error
	SetPrivacyMute(enabled bool) error
	AutoAnswer() bool
	DoNotDisturb() bool
	PrivacyMute() bool

	// Subscribe registers an observer for source events. The returned
	// cancel must be safe to call more than once.
	Subscribe(fn func(SourceEvent)) (cancel func())
}

type SourceEventKind string

const (
	SourceAdded          SourceEventKind = "source_added"
	SourceUpdated        SourceEventKind = "source_updated"
	SourceRemoved        SourceEventKind = "source_removed"
	BoothPropertyChanged SourceEventKind = "booth_property_changed"
)

// BoothProperty names a booth-level boolean the room caches client-side.
type BoothProperty string

const (
	PropAutoAnswer   BoothProperty = "auto_answer"
	PropDoNotDisturb BoothProperty = "do_not_disturb"
	PropPrivacyMute  BoothProperty = "privacy_mute"
)

// SourceEvent is one observed change on a booth. For call events the
// snapshot is taken by the adapter at emit time so consumers never touch
// the live call under the adapter's own locks.
type SourceEvent struct {
	Booth    domain.BoothID
	Kind     SourceEventKind
	Call     CallControl
	Snapshot domain.ConferenceSnapshot

	Property BoothProperty
	Enabled  bool
}
