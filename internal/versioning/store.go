package versioning

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rescale/msibuild/internal/constants"
	"github.com/rescale/msibuild/internal/pathutil"
)

// Default slot values, used whenever a slot has never been written or cannot be read.
var (
	DefaultNew     = MustParse(constants.DefaultNewVersion)
	DefaultCurrent = MustParse(constants.DefaultCurrentVersion)
)

// State is the pair of persisted versions.
type State struct {
	New     Record `json:"new" yaml:"new"`
	Current Record `json:"current" yaml:"current"`
}

// Options configures where a Store keeps its slot files.
// Empty names fall back to the defaults in constants.
type Options struct {
	NewFile     string
	CurrentFile string
}

// Store persists the two version slots as single-line text files.
// It is not safe for concurrent use by multiple processes.
type Store struct {
	newPath     string
	currentPath string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, opts Options) *Store {
	newFile := opts.NewFile
	if newFile == "" {
		newFile = constants.NewVersionFile
	}
	currentFile := opts.CurrentFile
	if currentFile == "" {
		currentFile = constants.CurrentVersionFile
	}

	return &Store{
		newPath:     pathutil.ResolveIn(dir, newFile),
		currentPath: pathutil.ResolveIn(dir, currentFile),
	}
}

// Path returns the file backing slot.
func (s *Store) Path(slot Slot) string {
	if slot == SlotCurrent {
		return s.currentPath
	}
	return s.newPath
}

// Read loads both slots. A slot that is missing, unreadable or malformed
// reads as its default; Read never fails.
func (s *Store) Read() State {
	st := State{New: DefaultNew, Current: DefaultCurrent}

	if r, err := s.ReadSlot(SlotNew); err == nil {
		st.New = r
	}
	if r, err := s.ReadSlot(SlotCurrent); err == nil {
		st.Current = r
	}

	return st
}

// ReadSlot loads one slot and reports why it could not be used.
// Surrounding whitespace left by hand edits is ignored.
func (s *Store) ReadSlot(slot Slot) (Record, error) {
	if err := checkSlot(slot); err != nil {
		return Record{}, err
	}

	data, err := os.ReadFile(s.Path(slot))
	if err != nil {
		return Record{}, fmt.Errorf("failed to read %s version: %w", slot, err)
	}

	r, err := Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse %s version file %s: %w", slot, s.Path(slot), err)
	}
	return r, nil
}

// Set validates text and overwrites slot with it.
func (s *Store) Set(text string, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	r, err := Parse(text)
	if err != nil {
		return err
	}

	return s.write(slot, r)
}

// Increment bumps the current version by level and stores the result in the
// new slot. The current slot is not modified.
func (s *Store) Increment(level Level) (Record, error) {
	if level < LevelPatch || level > LevelMajor {
		return Record{}, fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}

	next, err := s.Read().Current.Bump(level)
	if err != nil {
		return Record{}, err
	}
	if err := s.write(SlotNew, next); err != nil {
		return Record{}, err
	}
	return next, nil
}

// Reset restores both slots to their defaults. Calling it repeatedly is harmless.
func (s *Store) Reset() error {
	if err := s.write(SlotNew, DefaultNew); err != nil {
		return err
	}
	return s.write(SlotCurrent, DefaultCurrent)
}

// Promote records r as released: both slots are set to r, so the next
// Summarize offers fresh candidates again.
func (s *Store) Promote(r Record) error {
	if err := s.write(SlotCurrent, r); err != nil {
		return err
	}
	return s.write(SlotNew, r)
}

// Release records r as the released version after a build. A new version
// that was set explicitly, is still pending and differs from r stays in place
// and is returned; only current moves to r. Otherwise both slots become r.
func (s *Store) Release(r Record) (*Record, error) {
	st := s.Read()
	_, err := s.ReadSlot(SlotNew)
	explicit := err == nil

	if explicit && !st.New.Equal(st.Current) && !st.New.Equal(r) {
		if err := s.write(SlotCurrent, r); err != nil {
			return nil, err
		}
		pending := st.New
		return &pending, nil
	}

	return nil, s.Promote(r)
}

// write rewrites the whole slot file. The value goes to a temp file first and
// is renamed into place, so a crash leaves the previous value intact.
func (s *Store) write(slot Slot, r Record) error {
	path := s.Path(slot)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(r.String()), 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s version: %w", slot, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save %s version: %w", slot, err)
	}

	return nil
}

func checkSlot(slot Slot) error {
	if slot != SlotNew && slot != SlotCurrent {
		return fmt.Errorf("%w %q", ErrInvalidSlot, string(slot))
	}
	return nil
}

// IsNotExist reports whether err from ReadSlot means the slot was never written.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
