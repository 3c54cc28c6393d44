package versioning

import "fmt"

// Command is a mutation of the new slot. The only implementations are
// SetCommand and IncrementCommand, built with SetVersion and IncrementBy.
type Command interface {
	isCommand()
	fmt.Stringer
}

// SetCommand stores an explicit version in a slot.
type SetCommand struct {
	Slot Slot
	Text string
}

// IncrementCommand derives the new slot from the current one.
type IncrementCommand struct {
	Level Level
}

func (SetCommand) isCommand()       {}
func (IncrementCommand) isCommand() {}

func (c SetCommand) String() string {
	return fmt.Sprintf("set %s=%s", c.Slot, c.Text)
}

func (c IncrementCommand) String() string {
	return fmt.Sprintf("increment %s", c.Level)
}

// SetVersion returns a command that stores text in the new slot.
func SetVersion(text string) Command {
	return SetCommand{Slot: SlotNew, Text: text}
}

// SetSlotVersion returns a command that stores text in slot.
func SetSlotVersion(slot Slot, text string) Command {
	return SetCommand{Slot: slot, Text: text}
}

// IncrementBy returns a command that bumps current by level into new.
func IncrementBy(level Level) Command {
	return IncrementCommand{Level: level}
}

// Apply runs cmd against the store and returns the record that was written.
func (s *Store) Apply(cmd Command) (Record, error) {
	switch c := cmd.(type) {
	case SetCommand:
		r, err := Parse(c.Text)
		if err != nil {
			return Record{}, err
		}
		if err := s.Set(c.Text, c.Slot); err != nil {
			return Record{}, err
		}
		return r, nil
	case IncrementCommand:
		return s.Increment(c.Level)
	default:
		return Record{}, fmt.Errorf("unsupported version command %T", cmd)
	}
}
