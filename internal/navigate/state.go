package navigate

// State is a navigation controller state.
type State int

const (
	Idle State = iota
	Requesting
	AwaitingLoad
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case AwaitingLoad:
		return "awaiting_load"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observation is one poll of the view while waiting for it to settle.
type Observation struct {
	Title       string
	Fingerprint uint64
	Loading     bool
}

// Criteria decide when a load is confirmed.
type Criteria struct {
	PrevTitle  string // title before activation
	Want       string // target name the new title must be consistent with; empty accepts any change
	QuietPolls int    // consecutive unchanged fingerprints required
	MaxPolls   int    // polls before giving up
}

// LoadState is the AwaitingLoad bookkeeping carried between polls.
type LoadState struct {
	State State
	Polls int
	Quiet int

	last    uint64
	hasLast bool
}

// titleOK reports whether the observed title shows the target page.
func (c Criteria) titleOK(title string) bool {
	if title == "" || title == c.PrevTitle {
		return false
	}
	return c.Want == "" || Consistent(title, c.Want)
}

// Advance folds one observation into s. It is pure: the result depends only
// on its arguments. The load is confirmed once the title has moved to the
// target and the fingerprint has stayed the same for QuietPolls polls with no
// loading indicator; it fails once MaxPolls polls have passed without that.
func Advance(s LoadState, obs Observation, c Criteria) LoadState {
	if s.State == Confirmed || s.State == Failed {
		return s
	}
	s.State = AwaitingLoad
	s.Polls++
	settled := c.titleOK(obs.Title) && !obs.Loading
	if settled && s.hasLast && obs.Fingerprint == s.last {
		s.Quiet++
	} else {
		s.Quiet = 0
	}
	s.last, s.hasLast = obs.Fingerprint, true

	quiet := c.QuietPolls
	if quiet < 1 {
		quiet = 1
	}
	switch {
	case settled && s.Quiet >= quiet:
		s.State = Confirmed
	case c.MaxPolls > 0 && s.Polls >= c.MaxPolls:
		s.State = Failed
	}
	return s
}

// Seed starts a LoadState from the fingerprint seen before activation, so
// the first poll only counts as quiet if nothing changed at all.
func Seed(fingerprint uint64) LoadState {
	return LoadState{State: AwaitingLoad, last: fingerprint, hasLast: true}
}
