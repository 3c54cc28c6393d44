package versioning

// Candidates are the possible next versions derived from current. A level
// whose component is already at its limit has no candidate.
type Candidates struct {
	Patch *Record `json:"patch,omitempty" yaml:"patch,omitempty"`
	Minor *Record `json:"minor,omitempty" yaml:"minor,omitempty"`
	Major *Record `json:"major,omitempty" yaml:"major,omitempty"`
}

// For returns the candidate for level, or false when there is none.
func (c Candidates) For(level Level) (Record, bool) {
	var r *Record
	switch level {
	case LevelMinor:
		r = c.Minor
	case LevelMajor:
		r = c.Major
	default:
		r = c.Patch
	}
	if r == nil {
		return Record{}, false
	}
	return *r, true
}

// Summary is the read-only view shown by "version show".
type Summary struct {
	State State `json:"state" yaml:"state"`

	// Pending is true when an explicit new version differs from current.
	// Next then holds that version and Candidates is nil.
	Pending    bool        `json:"pending" yaml:"pending"`
	Next       *Record     `json:"next,omitempty" yaml:"next,omitempty"`
	Candidates *Candidates `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// Summarize computes what the next release would be. It never writes.
//
// An explicitly set new version wins over increment suggestions: candidates
// are only computed while new equals current.
func Summarize(st State) Summary {
	if !st.New.Equal(st.Current) {
		next := st.New
		return Summary{State: st, Pending: true, Next: &next}
	}

	c := &Candidates{}
	for _, level := range Levels {
		r, err := st.Current.Bump(level)
		if err != nil {
			continue
		}
		switch level {
		case LevelPatch:
			c.Patch = &r
		case LevelMinor:
			c.Minor = &r
		case LevelMajor:
			c.Major = &r
		}
	}

	return Summary{State: st, Candidates: c}
}

// NextVersion is the version a build uses when none is given: the pending
// new version, or otherwise the patch increment of current.
func (s Summary) NextVersion() (Record, error) {
	if s.Next != nil {
		return *s.Next, nil
	}
	return s.State.Current.Bump(LevelPatch)
}
