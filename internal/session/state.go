package session

// ToggleState is the lifecycle of one long-running device operation.
type ToggleState int

const (
	Idle ToggleState = iota
	Pending
	Active
)

var toggleNames = map[ToggleState]string{
	Idle:    "idle",
	Pending: "pending",
	Active:  "active",
}

func (s ToggleState) String() string {
	if n, ok := toggleNames[s]; ok {
		return n
	}
	return "unknown"
}

// toggle is one operation slot. Gathering and training each own their own
// slot; the transition logic is shared but the state never is.
type toggle struct {
	state ToggleState
	// prev is the settled state to fall back to if the in-flight command
	// fails. Only meaningful while state == Pending.
	prev ToggleState
}

// DeviceSession is a read-only snapshot of the client session.
type DeviceSession struct {
	SelectedDeviceID string
	Gathering        ToggleState
	Training         ToggleState
	Room             string
	Node             string
}
