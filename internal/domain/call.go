package domain

// CallStatus is the lifecycle of a call leg as observed from a booth
// adapter. Disconnected is terminal.
type CallStatus string

const (
	StatusUndefined     CallStatus = "undefined"
	StatusDialing       CallStatus = "dialing"
	StatusRinging       CallStatus = "ringing"
	StatusConnecting    CallStatus = "connecting"
	StatusConnected     CallStatus = "connected"
	StatusOnHold        CallStatus = "on_hold"
	StatusDisconnecting CallStatus = "disconnecting"
	StatusDisconnected  CallStatus = "disconnected"
)

// Terminal reports whether no further status change can follow.
func (s CallStatus) Terminal() bool {
	return s == StatusDisconnected
}

type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

type CallDirection string

const (
	DirectionIncoming CallDirection = "incoming"
	DirectionOutgoing CallDirection = "outgoing"
)

type RecordingStatus string

const (
	RecordingNone   RecordingStatus = "none"
	RecordingActive RecordingStatus = "active"
	RecordingPaused RecordingStatus = "paused"
)

// FeatureFlags advertises which operations a conference or participant
// supports.
type FeatureFlags uint32

const (
	FeatureHold FeatureFlags = 1 << iota
	FeatureResume
	FeatureDTMF
	FeatureHangup
	FeatureAnswer
	FeatureMuteSelf
	FeatureCameraControl
	FeatureAdmit
	FeatureKick
	FeatureRaiseHand
	FeatureSetMute
)

// WireParticipantFeatures is the subset of flags allowed on participant
// snapshots. Remote-control actions (camera, admit, kick, hand, set-mute)
// need a live method call and never cross the wire as state.
const WireParticipantFeatures = FeatureHold | FeatureResume | FeatureDTMF |
	FeatureHangup | FeatureAnswer | FeatureMuteSelf

// Has reports whether all bits of want are set.
func (f FeatureFlags) Has(want FeatureFlags) bool {
	return f&want == want
}
