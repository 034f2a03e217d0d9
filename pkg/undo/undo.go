// Package undo implements the per-entity undo/redo binding every body
// package wires over its typed root: an undo manager that observes only
// that root, groups same-origin edits inside a short window into one
// undo unit, and never persists its stack across a close/reopen cycle.
package undo

import (
	"sync"
	"time"

	"github.com/collabkit/collab/internal/crdt"
)

// Clock provides the time source the grouping window is measured
// against. Tests inject a fake clock instead of depending on wall time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Window is the default grouping period: consecutive local edits land in
// the same undo unit when they arrive within Window of each other.
const Window = 500 * time.Millisecond

type unit struct {
	events []crdt.Event
}

// Manager is a per-entity undo/redo stack scoped to a single typed root
// and filtered to one local origin: edits carrying any other origin are
// ignored and never captured as undoable units.
type Manager struct {
	mu     sync.Mutex
	doc    *crdt.Doc
	origin crdt.Origin
	clock  Clock
	window time.Duration
	cancel func()

	undoStack []unit
	redoStack []unit
	lastEdit  time.Time
	replaying bool
}

// New subscribes to scope's deep changes and returns a Manager scoped to
// it. Call Close when the owning Object is dropped.
func New(doc *crdt.Doc, scope *crdt.Map, origin crdt.Origin, clock Clock, window time.Duration) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	if window <= 0 {
		window = Window
	}
	m := &Manager{doc: doc, origin: origin, clock: clock, window: window}
	m.cancel = scope.ObserveDeep(m.onCommit)
	return m
}

func (m *Manager) onCommit(ce crdt.CommitEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaying || ce.Origin != m.origin {
		return
	}
	now := m.clock.Now()
	if len(m.undoStack) > 0 && !m.lastEdit.IsZero() && now.Sub(m.lastEdit) <= m.window {
		top := &m.undoStack[len(m.undoStack)-1]
		top.events = append(top.events, ce.Events...)
	} else {
		m.undoStack = append(m.undoStack, unit{events: append([]crdt.Event(nil), ce.Events...)})
	}
	m.lastEdit = now
	m.redoStack = nil
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// Undo reverts the most recently grouped edit unit. Returns false, nil
// if the undo stack was empty.
func (m *Manager) Undo() (bool, error) {
	m.mu.Lock()
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return false, nil
	}
	u := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.replaying = true
	m.mu.Unlock()

	err := m.doc.TransactWith(m.origin, func(txn *crdt.Transaction) error {
		for i := len(u.events) - 1; i >= 0; i-- {
			applyInverse(m.doc, txn, u.events[i])
		}
		return nil
	})

	m.mu.Lock()
	m.replaying = false
	if err == nil {
		m.redoStack = append(m.redoStack, u)
	} else {
		m.undoStack = append(m.undoStack, u)
	}
	m.mu.Unlock()
	return err == nil, err
}

// Redo re-applies the most recently undone unit. Returns false, nil if
// the redo stack was empty.
func (m *Manager) Redo() (bool, error) {
	m.mu.Lock()
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return false, nil
	}
	u := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.replaying = true
	m.mu.Unlock()

	err := m.doc.TransactWith(m.origin, func(txn *crdt.Transaction) error {
		for _, e := range u.events {
			applyForward(m.doc, txn, e)
		}
		return nil
	})

	m.mu.Lock()
	m.replaying = false
	if err == nil {
		m.undoStack = append(m.undoStack, u)
	} else {
		m.redoStack = append(m.redoStack, u)
	}
	m.mu.Unlock()
	return err == nil, err
}

// Close unsubscribes from the scope. A reopened Object gets a fresh
// Manager with an empty stack: undo history is never part of doc state.
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}
