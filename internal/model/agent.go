package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is one of the four human-activated audit agent roles.
type Role string

const (
	// RoleNone is the state before any role has been activated.
	RoleNone                      Role = ""
	RoleProtocolMapper            Role = "Protocol Mapper"
	RoleAttackHypothesisGenerator Role = "Attack Hypothesis Generator"
	RoleCodePathExplorer          Role = "Code Path Explorer"
	RoleAdversarialReviewer       Role = "Adversarial Reviewer"
)

// ErrUnknownRole is returned for a tag naming a role outside the four.
var ErrUnknownRole = errors.New("unknown audit agent role")

// Roles returns the roles in activation order.
func Roles() []Role {
	return []Role{RoleProtocolMapper, RoleAttackHypothesisGenerator, RoleCodePathExplorer, RoleAdversarialReviewer}
}

// Index returns the position of the role in the activation order, -1 for none.
func (r Role) Index() int {
	for i, role := range Roles() {
		if role == r {
			return i
		}
	}

	return -1
}

// Stage names the pipeline stage a role drives.
func (r Role) Stage() string {
	switch r {
	case RoleProtocolMapper:
		return "classify"
	case RoleAttackHypothesisGenerator:
		return "hypotheses"
	case RoleCodePathExplorer:
		return "gate"
	case RoleAdversarialReviewer:
		return "review"
	case RoleNone:
	}

	return ""
}

// ParseRole matches a role name case-insensitively.
func ParseRole(name string) (Role, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	for _, role := range Roles() {
		if strings.ToLower(string(role)) == normalized {
			return role, nil
		}
	}

	return RoleNone, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

var agentTagPattern = regexp.MustCompile(`\[AUDIT AGENT:\s*([^\]]+?)\s*\]`)

// ParseAgentTag finds the first "[AUDIT AGENT: <Role>]" tag in text. It
// returns the role and the text with the tag removed. found is false when no
// tag is present; err is set when a tag names an unknown role.
func ParseAgentTag(text string) (role Role, rest string, found bool, err error) {
	loc := agentTagPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return RoleNone, text, false, nil
	}

	role, err = ParseRole(text[loc[2]:loc[3]])
	rest = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])

	return role, rest, true, err
}

// Invariant is a claim recorded by the Protocol Mapper.
type Invariant struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Disputed bool   `json:"disputed"`

	// Dispute holds the reviewer's reason. Disputes are never auto-resolved.
	Dispute string `json:"dispute,omitempty"`
}

// Transition is one human-triggered role activation.
type Transition struct {
	From Role      `json:"from"`
	To   Role      `json:"to"`
	At   time.Time `json:"at"`
	Note string    `json:"note,omitempty"`
}

// SessionState is the persisted state of an agent session.
type SessionState struct {
	ID          string       `json:"id"`
	Current     Role         `json:"current"`
	Invariants  []Invariant  `json:"invariants,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// NewSessionState starts a session with no active role.
func NewSessionState() SessionState {
	return SessionState{ID: uuid.New().String()}
}
