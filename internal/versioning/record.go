// Package versioning keeps the two persisted release version slots ("new" and
// "current") and implements the parse, increment and display rules around them.
package versioning

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidFormat is matched by every *FormatError.
var ErrInvalidFormat = errors.New("invalid version format")

// Errors for the other user-supplied enums.
var (
	ErrInvalidLevel = errors.New("invalid increment level")
	ErrInvalidSlot  = errors.New("invalid version slot")
)

// ErrVersionOverflow is returned when a component cannot be incremented
// without wrapping around.
var ErrVersionOverflow = errors.New("version component overflow")

// FormatError reports a version string that is not MAJOR.MINOR.PATCH.
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid version format %q: expected MAJOR.MINOR.PATCH (e.g. 1.2.3)", e.Text)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Record is a release version. Pre-release and build metadata are not supported.
type Record struct {
	Major uint64
	Minor uint64
	Patch uint64

	// text is the string the record was parsed from, kept so that
	// "01.2.3" prints back unchanged. Empty for computed records.
	text string
}

// Parse validates text and returns the record it names.
//
// Only three dot-separated non-negative integers are accepted. Whitespace is
// not trimmed, so " 1.2.3" is rejected like any other malformed string.
func Parse(text string) (Record, error) {
	if !versionPattern.MatchString(text) {
		return Record{}, &FormatError{Text: text}
	}

	parts := strings.Split(text, ".")
	var nums [3]uint64
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			// Only reachable on overflow; the pattern already guarantees digits.
			return Record{}, &FormatError{Text: text}
		}
		nums[i] = n
	}

	return Record{Major: nums[0], Minor: nums[1], Patch: nums[2], text: text}, nil
}

// MustParse is Parse for constants. It panics on malformed input.
func MustParse(text string) Record {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Record) String() string {
	if r.text != "" {
		return r.text
	}
	return fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Patch)
}

// Equal compares the numeric components, so "1.02.3" equals "1.2.3".
func (r Record) Equal(o Record) bool {
	return r.Major == o.Major && r.Minor == o.Minor && r.Patch == o.Patch
}

// MarshalText lets JSON and YAML output render records as "1.2.3".
func (r Record) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses "1.2.3" with the same rules as Parse.
func (r *Record) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Bump returns the record advanced by one step at level. Lower components
// reset to zero, higher components are untouched. A component already at the
// uint64 limit cannot be advanced and yields ErrVersionOverflow.
func (r Record) Bump(level Level) (Record, error) {
	v := semver.New(r.Major, r.Minor, r.Patch, "", "")

	var next semver.Version
	switch level {
	case LevelMinor:
		if r.Minor == math.MaxUint64 {
			return Record{}, overflow(r, level)
		}
		next = v.IncMinor()
	case LevelMajor:
		if r.Major == math.MaxUint64 {
			return Record{}, overflow(r, level)
		}
		next = v.IncMajor()
	default:
		if r.Patch == math.MaxUint64 {
			return Record{}, overflow(r, level)
		}
		next = v.IncPatch()
	}

	return Record{Major: next.Major(), Minor: next.Minor(), Patch: next.Patch()}, nil
}

func overflow(r Record, level Level) error {
	return fmt.Errorf("%w: cannot increment %s of %s", ErrVersionOverflow, level, r)
}

// Level selects which component an increment advances.
type Level int

const (
	LevelPatch Level = iota
	LevelMinor
	LevelMajor
)

// Levels lists every increment level in display order.
var Levels = []Level{LevelPatch, LevelMinor, LevelMajor}

func (l Level) String() string {
	switch l {
	case LevelPatch:
		return "patch"
	case LevelMinor:
		return "minor"
	case LevelMajor:
		return "major"
	default:
		return "unknown"
	}
}

// ParseLevel accepts "patch", "minor" or "major" in any case.
func ParseLevel(text string) (Level, error) {
	switch strings.ToLower(text) {
	case "patch":
		return LevelPatch, nil
	case "minor":
		return LevelMinor, nil
	case "major":
		return LevelMajor, nil
	default:
		return 0, fmt.Errorf("%w %q: must be one of patch, minor, major", ErrInvalidLevel, text)
	}
}

// Slot names one of the two persisted versions.
type Slot string

const (
	// SlotNew holds the version the next release adopts when set explicitly.
	SlotNew Slot = "new"
	// SlotCurrent holds the last version actually released.
	SlotCurrent Slot = "current"
)

// ParseSlot accepts "new" or "current" in any case.
func ParseSlot(text string) (Slot, error) {
	switch Slot(strings.ToLower(text)) {
	case SlotNew:
		return SlotNew, nil
	case SlotCurrent:
		return SlotCurrent, nil
	default:
		return "", fmt.Errorf("%w %q: must be one of new, current", ErrInvalidSlot, text)
	}
}
