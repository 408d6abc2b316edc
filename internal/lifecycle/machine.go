// Package lifecycle guards status transitions of documents such as quotes,
// sales orders and expense claims.
package lifecycle

import (
	"fmt"
	"sort"

	"github.com/xelth-com/eckbiz/internal/apperr"
)

// Transition lists the statuses an action may start from and where it leads.
type Transition[S ~string] struct {
	From []S
	To   S
}

// Machine is an immutable transition table for one entity type.
type Machine[S ~string] struct {
	entity      string
	transitions map[string]Transition[S]
	editable    map[S]bool
}

// New builds a machine. editable lists the statuses in which field edits are allowed.
func New[S ~string](entity string, transitions map[string]Transition[S], editable ...S) *Machine[S] {
	m := &Machine[S]{
		entity:      entity,
		transitions: transitions,
		editable:    make(map[S]bool, len(editable)),
	}
	for _, s := range editable {
		m.editable[s] = true
	}
	return m
}

// Next returns the status reached by applying action to current.
func (m *Machine[S]) Next(action string, current S) (S, error) {
	t, ok := m.transitions[action]
	if !ok {
		return current, fmt.Errorf("%s: unknown action %q", m.entity, action)
	}
	for _, from := range t.From {
		if from == current {
			return t.To, nil
		}
	}
	return current, apperr.InvalidState(string(current), "cannot %s %s in status %s", action, m.entity, current)
}

// Can reports whether action is legal from current.
func (m *Machine[S]) Can(action string, current S) bool {
	_, err := m.Next(action, current)
	return err == nil
}

// Actions lists the actions legal from current, sorted.
func (m *Machine[S]) Actions(current S) []string {
	var out []string
	for name := range m.transitions {
		if m.Can(name, current) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CheckEditable rejects field edits outside the editable statuses.
func (m *Machine[S]) CheckEditable(current S) error {
	if m.editable[current] {
		return nil
	}
	return apperr.InvalidState(string(current), "cannot edit %s in status %s", m.entity, current)
}
