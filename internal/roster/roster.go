// Package roster manages the fixed set of skill slots.
//
// The Manager is the only component that creates, replaces or disposes
// skills. Replacing a slot always disposes its previous occupant first,
// so a skill never handles events after it has left the roster.
package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
	"github.com/dshills/numbertheorist/internal/skill"
)

// Errors returned by the roster.
var (
	// ErrSlotOutOfRange is returned for a slot index outside the roster.
	ErrSlotOutOfRange = errors.New("roster: slot out of range")

	// ErrInvalidRoster is returned for a roster that does not fit the
	// configured slots.
	ErrInvalidRoster = errors.New("roster: invalid roster")
)

// Entry is the saved form of one occupied slot.
type Entry struct {
	Name  string          `json:"name"`
	State json.RawMessage `json:"state,omitempty"`
}

// Manager owns the skill slots. It must be used from the scheduler goroutine.
type Manager struct {
	deps     skill.Deps
	defaults []string
	slots    []skill.Skill
	pub      *event.Publisher
	logger   *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a manager with size empty slots. Reset fills the first
// slots with defaults.
func New(deps skill.Deps, size int, defaults []string, opts ...Option) (*Manager, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d slots", ErrInvalidRoster, size)
	}
	if len(defaults) > size {
		return nil, fmt.Errorf("%w: %d default skills for %d slots", ErrInvalidRoster, len(defaults), size)
	}
	for _, name := range defaults {
		if !skill.Known(name) {
			return nil, &skill.UnknownSkillError{Name: name}
		}
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		deps:     deps,
		defaults: append([]string(nil), defaults...),
		slots:    make([]skill.Skill, size),
		pub:      event.NewPublisher(deps.Bus, "roster"),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Size returns the number of slots.
func (m *Manager) Size() int {
	return len(m.slots)
}

// Slot returns the skill in slot i, or nil when the slot is empty or out of range.
func (m *Manager) Slot(i int) skill.Skill {
	if i < 0 || i >= len(m.slots) {
		return nil
	}
	return m.slots[i]
}

// Find returns the first skill with the given name.
func (m *Manager) Find(name string) (skill.Skill, int, bool) {
	for i, s := range m.slots {
		if s != nil && s.Name() == name {
			return s, i, true
		}
	}
	return nil, -1, false
}

// Reset disposes every skill, clears every slot and installs the defaults.
func (m *Manager) Reset(ctx context.Context) error {
	var errs []error
	for i := range m.slots {
		errs = append(errs, m.clear(ctx, i))
	}
	for i, name := range m.defaults {
		if err := m.Instantiate(ctx, i, name, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Instantiate replaces the occupant of slot with a new skill of the given
// name, restoring payload when it is non-empty.
func (m *Manager) Instantiate(ctx context.Context, slot int, name string, payload json.RawMessage) error {
	if slot < 0 || slot >= len(m.slots) {
		return fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, slot, len(m.slots))
	}
	if m.slots[slot] != nil {
		if err := m.clear(ctx, slot); err != nil {
			return err
		}
	}

	s, err := skill.New(name, m.deps)
	if err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}

	m.slots[slot] = s
	err = errors.Join(
		m.pub.PublishEvent(ctx, events.SlotPopulated{Index: slot, Skill: name}),
		s.Init(ctx),
	)
	if err == nil && hasPayload(payload) {
		err = s.Restore(ctx, payload)
	}
	if err != nil {
		return errors.Join(fmt.Errorf("slot %d: %w", slot, err), m.clear(ctx, slot))
	}

	m.logger.Debug("skill installed", zap.Int("slot", slot), zap.String("skill", name))
	return nil
}

// State returns one entry per slot, nil for empty slots.
func (m *Manager) State() ([]*Entry, error) {
	entries := make([]*Entry, len(m.slots))
	for i, s := range m.slots {
		if s == nil {
			continue
		}
		payload, err := s.State()
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		entries[i] = &Entry{Name: s.Name(), State: payload}
	}
	return entries, nil
}

// Restore resets the roster and installs the saved entries. Slots with no
// entry end up empty.
func (m *Manager) Restore(ctx context.Context, entries []*Entry) error {
	if len(entries) > len(m.slots) {
		return fmt.Errorf("%w: %d entries for %d slots", ErrInvalidRoster, len(entries), len(m.slots))
	}
	for i, e := range entries {
		if e != nil && !skill.Known(e.Name) {
			return fmt.Errorf("slot %d: %w", i, &skill.UnknownSkillError{Name: e.Name})
		}
	}

	if err := m.Reset(ctx); err != nil {
		return err
	}
	for i := range m.slots {
		var e *Entry
		if i < len(entries) {
			e = entries[i]
		}
		if e == nil {
			if err := m.clear(ctx, i); err != nil {
				return err
			}
			continue
		}
		if err := m.Instantiate(ctx, i, e.Name, e.State); err != nil {
			return err
		}
	}
	return nil
}

// Close disposes every skill without publishing.
func (m *Manager) Close() {
	for i, s := range m.slots {
		if s != nil {
			s.Dispose()
			m.slots[i] = nil
		}
	}
}

// clear disposes the occupant of slot and announces the empty slot.
func (m *Manager) clear(ctx context.Context, slot int) error {
	if s := m.slots[slot]; s != nil {
		s.Dispose()
		m.slots[slot] = nil
	}
	return m.pub.PublishEvent(ctx, events.SlotCleared{Index: slot})
}

func hasPayload(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
