package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	m "phasegate.dev/pkg/phasegate/internal/model"
)

var (
	// ErrOutOfSequence is returned when a role is activated out of the
	// Mapper, Generator, Explorer, Reviewer order.
	ErrOutOfSequence = errors.New("agent role activated out of sequence")
	// ErrRoleNotActive is returned when an action belongs to another role.
	ErrRoleNotActive = errors.New("action requires a different active role")
	// ErrUnknownInvariant is returned when disputing an invariant that was never asserted.
	ErrUnknownInvariant = errors.New("unknown invariant")
)

// Session is the human-driven agent role state machine. Nothing advances
// it except an explicit Activate call, one role at a time.
type Session struct {
	state m.SessionState
	now   func() time.Time
}

// NewSession wraps a persisted session state.
func NewSession(state m.SessionState) *Session {
	return &Session{state: state, now: time.Now}
}

// State returns a copy of the session state.
func (s *Session) State() m.SessionState {
	state := s.state
	state.Invariants = append([]m.Invariant(nil), s.state.Invariants...)
	state.Transitions = append([]m.Transition(nil), s.state.Transitions...)

	return state
}

// Current returns the active role, RoleNone before the first activation.
func (s *Session) Current() m.Role {
	return s.state.Current
}

// Next returns the only role that may be activated after the current one.
func (s *Session) Next() (m.Role, bool) {
	roles := m.Roles()

	i := s.state.Current.Index() + 1
	if i >= len(roles) {
		return m.RoleNone, false
	}

	return roles[i], true
}

// Activate switches to role. Re-activating the current role is a no-op;
// any role other than the next one is rejected.
func (s *Session) Activate(role m.Role, note string) error {
	if role.Index() < 0 {
		return fmt.Errorf("%w: %q", m.ErrUnknownRole, role)
	}

	if role == s.state.Current {
		return nil
	}

	next, ok := s.Next()
	if !ok || role != next {
		return fmt.Errorf("%w: %s can not follow %s", ErrOutOfSequence, role, describe(s.state.Current))
	}

	s.state.Transitions = append(s.state.Transitions, m.Transition{
		From: s.state.Current,
		To:   role,
		At:   s.now().UTC(),
		Note: strings.TrimSpace(note),
	})
	s.state.Current = role

	return nil
}

// Assert records an invariant. Only the Protocol Mapper asserts invariants.
func (s *Session) Assert(text string) (m.Invariant, error) {
	if s.state.Current != m.RoleProtocolMapper {
		return m.Invariant{}, fmt.Errorf("%w: invariants are asserted by %s", ErrRoleNotActive, m.RoleProtocolMapper)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return m.Invariant{}, errors.New("empty invariant")
	}

	inv := m.Invariant{ID: fmt.Sprintf("INV-%d", len(s.state.Invariants)+1), Text: text}
	s.state.Invariants = append(s.state.Invariants, inv)

	return inv, nil
}

// Dispute marks an invariant as contradicted by the Adversarial Reviewer.
// The dispute is recorded and surfaced, the invariant is not removed.
func (s *Session) Dispute(id, reason string) error {
	if s.state.Current != m.RoleAdversarialReviewer {
		return fmt.Errorf("%w: disputes are raised by %s", ErrRoleNotActive, m.RoleAdversarialReviewer)
	}

	for i := range s.state.Invariants {
		if strings.EqualFold(s.state.Invariants[i].ID, id) {
			s.state.Invariants[i].Disputed = true
			s.state.Invariants[i].Dispute = strings.TrimSpace(reason)

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownInvariant, id)
}

// Disputed returns the invariants under dispute.
func (s *Session) Disputed() []m.Invariant {
	var out []m.Invariant

	for _, inv := range s.state.Invariants {
		if inv.Disputed {
			out = append(out, inv)
		}
	}

	return out
}

func describe(r m.Role) string {
	if r == m.RoleNone {
		return "a new session"
	}

	return string(r)
}
