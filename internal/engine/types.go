package engine

// ChangeKind classifies an incoming snapshot against the engine's last
// observed snapshot.
type ChangeKind int

const (
	ChangeNoChange ChangeKind = iota
	ChangeInitial
	ChangeTrackChange
	ChangeStateTransition
	ChangeMetadataRefresh
	ChangePositionDrift
)

// String names a ChangeKind for logging.
func (k ChangeKind) String() string {
	switch k {
	case ChangeInitial:
		return "initial"
	case ChangeTrackChange:
		return "track_change"
	case ChangeStateTransition:
		return "state_transition"
	case ChangeMetadataRefresh:
		return "metadata_refresh"
	case ChangePositionDrift:
		return "position_drift"
	default:
		return "no_change"
	}
}

// DecisionKind is the outcome of a Tick.
type DecisionKind int

const (
	DecisionNoOp DecisionKind = iota
	DecisionClear
	DecisionSetActivity
)

// String names a DecisionKind for logging.
func (d DecisionKind) String() string {
	switch d {
	case DecisionClear:
		return "clear"
	case DecisionSetActivity:
		return "set_activity"
	default:
		return "no_op"
	}
}

// ActivityListening is the Discord activity type used for every presence
// this daemon ever sends: Listening, constant.
const ActivityListening = 2

// Button is an optional Discord Rich Presence button.
type Button struct {
	Label string
	URL   string
}

// ActivityPayload is what the Discord RPC client sends for SET_ACTIVITY.
type ActivityPayload struct {
	ActivityType       int
	Details            string
	StateText          string
	StartTimestampUnix *int64
	LargeImage         string
	LargeText          string
	SmallImage         string
	SmallText          string
	Buttons            []Button
}

// Decision is the Event Engine's output to the RPC client.
type Decision struct {
	Kind     DecisionKind
	Activity ActivityPayload
	Diff     ChangeKind
}
