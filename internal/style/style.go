// Package style snapshots, mutates and restores the presentation state of a
// single element.
//
// A Snapshot is taken before any mutation and lists every inline property
// and attribute the caller is allowed to touch. Mutations outside that list
// are refused, so restoring the snapshot always returns the element to the
// exact state it had before the capture.
package style

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alnah/go-thumbshot/internal/dom"
)

// Sentinel errors for style state operations.
var (
	ErrRestore         = errors.New("style restore failed")
	ErrAlreadyRestored = errors.New("snapshot already restored")
	ErrNotSnapshotted  = errors.New("name not covered by snapshot")
	ErrWrongElement    = errors.New("snapshot belongs to another element")
	ErrSnapshot        = errors.New("style snapshot failed")
)

// Kind distinguishes inline CSS properties from attributes.
type Kind int

const (
	KindProperty Kind = iota
	KindAttribute
)

// Entry is the prior state of one property or attribute.
type Entry struct {
	Name     string
	Kind     Kind
	Value    string
	Priority string
	Present  bool
}

// Fields lists what a snapshot covers.
type Fields struct {
	Properties []string
	Attributes []string
}

// CaptureFields are the longhand properties and attributes a capture may
// mutate. Longhands only: restoring a shorthand would clobber sibling
// longhands that were set independently.
var CaptureFields = Fields{
	Properties: []string{
		"border-top-style", "border-right-style", "border-bottom-style", "border-left-style",
		"border-top-left-radius", "border-top-right-radius",
		"border-bottom-right-radius", "border-bottom-left-radius",
		"box-shadow",
		"filter",
		"transform",
		"background-color",
		"padding-top", "padding-right", "padding-bottom", "padding-left",
		"margin-top", "margin-right", "margin-bottom", "margin-left",
		"outline-style",
		"backdrop-filter",
	},
	Attributes: []string{"class"},
}

// Snapshot is the recorded state of one element, taken once per capture.
type Snapshot struct {
	el       dom.Element
	entries  []Entry
	index    map[string]int
	mu       sync.Mutex
	restored bool
}

// Key returns the key of the element the snapshot was taken from.
func (s *Snapshot) Key() string {
	return s.el.Key()
}

// Entries returns a copy of the recorded entries in snapshot order.
func (s *Snapshot) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Covers reports whether name is part of the snapshot.
func (s *Snapshot) Covers(kind Kind, name string) bool {
	_, ok := s.index[indexKey(kind, name)]
	return ok
}

// Restored reports whether Restore already ran.
func (s *Snapshot) Restored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restored
}

func indexKey(kind Kind, name string) string {
	if kind == KindAttribute {
		return "@" + name
	}
	return name
}

// DefaultRestoreTimeout bounds a restore once the capture context is gone.
const DefaultRestoreTimeout = 5 * time.Second

// Manager takes and restores snapshots. The zero value is not usable; call
// NewManager.
type Manager struct {
	logger  *slog.Logger
	timeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRestoreTimeout sets how long Restore may take. Non-positive values
// keep the default.
func WithRestoreTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager returns a Manager logging through logger (discarded if nil).
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{logger: logger, timeout: DefaultRestoreTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot records the current state of the requested fields of el.
func (m *Manager) Snapshot(ctx context.Context, el dom.Element, f Fields) (*Snapshot, error) {
	s := &Snapshot{
		el:    el,
		index: make(map[string]int, len(f.Properties)+len(f.Attributes)),
	}

	for _, name := range f.Properties {
		p, err := el.InlineStyle(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrSnapshot, name, err)
		}
		s.add(Entry{Name: name, Kind: KindProperty, Value: p.Value, Priority: p.Priority, Present: p.Set()})
	}
	for _, name := range f.Attributes {
		v, ok, err := el.Attribute(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: reading attribute %s: %v", ErrSnapshot, name, err)
		}
		s.add(Entry{Name: name, Kind: KindAttribute, Value: v, Present: ok})
	}

	m.logger.Debug("style snapshot taken", "element", el.Key(), "entries", len(s.entries))
	return s, nil
}

func (s *Snapshot) add(e Entry) {
	k := indexKey(e.Kind, e.Name)
	if _, dup := s.index[k]; dup {
		return
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Restore writes every entry of snap back to el exactly once. Entries that
// were unset are cleared. A second call returns ErrAlreadyRestored and
// writes nothing. Every entry is attempted even when some fail; failures are
// joined under ErrRestore.
func (m *Manager) Restore(ctx context.Context, el dom.Element, snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	if el.Key() != snap.Key() {
		return fmt.Errorf("%w: %s != %s", ErrWrongElement, el.Key(), snap.Key())
	}

	snap.mu.Lock()
	if snap.restored {
		snap.mu.Unlock()
		return ErrAlreadyRestored
	}
	snap.restored = true
	snap.mu.Unlock()

	// Restoration must happen even when the capture context is gone, but a
	// hung engine must not hold the element forever.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	var errs []error
	for _, e := range snap.entries {
		if err := restoreEntry(ctx, el, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	if len(errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrRestore, errors.Join(errs...))
		m.logger.Warn("style restore incomplete", "element", el.Key(), "failed", len(errs), "error", err)
		return err
	}

	m.logger.Debug("style restored", "element", el.Key())
	return nil
}

func restoreEntry(ctx context.Context, el dom.Element, e Entry) error {
	switch e.Kind {
	case KindAttribute:
		if e.Present {
			return el.SetAttribute(ctx, e.Name, e.Value)
		}
		return el.RemoveAttribute(ctx, e.Name)
	default:
		if e.Present {
			return el.SetInlineStyle(ctx, e.Name, dom.Property{Value: e.Value, Priority: e.Priority})
		}
		return el.RemoveInlineStyle(ctx, e.Name)
	}
}
