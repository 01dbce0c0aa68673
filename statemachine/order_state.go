package statemachine

import (
	"fmt"
	"strings"

	"food-ordering-api/models"
)

// Actor identifies who is requesting a status change.
type Actor string

const (
	ActorAdmin    Actor = "admin"
	ActorCustomer Actor = "customer"
)

// Policy selects how admin status changes are checked.
type Policy string

const (
	// Permissive lets an admin move an order between any two statuses.
	Permissive Policy = "permissive"
	// Strict allows only the forward chain, with Cancelled reachable from
	// any non-terminal status.
	Strict Policy = "strict"
)

// ParsePolicy converts a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Permissive:
		return Permissive, nil
	case Strict:
		return Strict, nil
	default:
		return "", fmt.Errorf("unknown transition policy %q", s)
	}
}

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

// Statuses lists every order status in workflow order.
var Statuses = []models.OrderStatus{
	models.StatusPending,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusDelivered,
	models.StatusCancelled,
}

var strictTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusPreparing, Actor: ActorAdmin},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: ActorAdmin},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusReady, To: models.StatusDelivered, Actor: ActorAdmin},
	{From: models.StatusReady, To: models.StatusCancelled, Actor: ActorAdmin},
}

// Customers may only withdraw an order nobody has started on.
var customerTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorCustomer},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

// Machine checks order status changes against a transition table.
type Machine struct {
	policy      Policy
	transitions []Transition
	lookup      map[transitionKey]bool
}

// New builds a Machine for the given admin policy.
func New(policy Policy) *Machine {
	var transitions []Transition
	if policy == Strict {
		transitions = append(transitions, strictTransitions...)
	} else {
		policy = Permissive
		for _, from := range Statuses {
			for _, to := range Statuses {
				if from != to {
					transitions = append(transitions, Transition{From: from, To: to, Actor: ActorAdmin})
				}
			}
		}
	}
	transitions = append(transitions, customerTransitions...)

	lookup := make(map[transitionKey]bool, len(transitions))
	for _, t := range transitions {
		lookup[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return &Machine{policy: policy, transitions: transitions, lookup: lookup}
}

// Policy returns the admin policy in effect.
func (m *Machine) Policy() Policy {
	return m.policy
}

// IsValidStatus reports whether s is one of the defined statuses.
func IsValidStatus(s models.OrderStatus) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidTransitionsFrom returns all valid next states from a given state for an actor
func (m *Machine) ValidTransitionsFrom(status models.OrderStatus, actor Actor) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range m.transitions {
		if t.From == status && t.Actor == actor {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// Setting an order to the status it already has is always accepted.
func (m *Machine) CanTransition(from, to models.OrderStatus, actor Actor) error {
	if from == to && actor == ActorAdmin {
		return nil
	}
	if m.lookup[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for %s; valid transitions from %s are: %s",
		from, to, actor, from, describe(m.ValidTransitionsFrom(from, actor)))
}

func describe(nexts []models.OrderStatus) string {
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Transitions returns the full table for documentation
func (m *Machine) Transitions() []Transition {
	return m.transitions
}
