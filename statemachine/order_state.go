package statemachine

import (
	"food-ordering-api/apperrors"
	"food-ordering-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus
	Role models.UserRole
}

// validTransitions is the authoritative state machine definition. The client
// UI only offers legal next statuses; this table is the security boundary.
//
// Couriers may only claim an order after the restaurant marked it ready, and
// only the assigned courier may advance it past accepted (checked by the
// ledger, which knows the assignment).
var validTransitions = []Transition{
	// Restaurant prepares the order; admin may act on its behalf
	{From: models.StatusPending, To: models.StatusConfirmed, Role: models.RoleRestaurant},
	{From: models.StatusPending, To: models.StatusConfirmed, Role: models.RoleAdmin},
	{From: models.StatusPending, To: models.StatusRejected, Role: models.RoleRestaurant},
	{From: models.StatusPending, To: models.StatusRejected, Role: models.RoleAdmin},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Role: models.RoleRestaurant},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Role: models.RoleAdmin},
	{From: models.StatusConfirmed, To: models.StatusRejected, Role: models.RoleRestaurant},
	{From: models.StatusConfirmed, To: models.StatusRejected, Role: models.RoleAdmin},
	{From: models.StatusPreparing, To: models.StatusReady, Role: models.RoleRestaurant},
	{From: models.StatusPreparing, To: models.StatusReady, Role: models.RoleAdmin},
	{From: models.StatusPreparing, To: models.StatusRejected, Role: models.RoleRestaurant},
	{From: models.StatusPreparing, To: models.StatusRejected, Role: models.RoleAdmin},
	// Courier claims a ready order, then carries it
	{From: models.StatusReady, To: models.StatusAccepted, Role: models.RoleDelivery},
	{From: models.StatusAccepted, To: models.StatusPickedUp, Role: models.RoleDelivery},
	{From: models.StatusPickedUp, To: models.StatusDelivered, Role: models.RoleDelivery},
}

type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
	Role models.UserRole
}

type pairKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Build lookup maps for O(1) validation
var (
	transitionMap = func() map[transitionKey]bool {
		m := make(map[transitionKey]bool)
		for _, t := range validTransitions {
			m[transitionKey{t.From, t.To, t.Role}] = true
		}
		return m
	}()
	pairMap = func() map[pairKey]bool {
		m := make(map[pairKey]bool)
		for _, t := range validTransitions {
			m[pairKey{t.From, t.To}] = true
		}
		return m
	}()
)

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether a given role may move an order from one state
// to another. An unreachable (from, to) pair is an invalid transition; a
// reachable pair attempted by the wrong role is forbidden.
func CanTransition(from, to models.OrderStatus, role models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Role: role}] {
		return nil
	}
	if pairMap[pairKey{From: from, To: to}] {
		return apperrors.ErrForbidden.WithMessagef(
			"role %q may not move an order from %q to %q", role, from, to)
	}
	return apperrors.ErrInvalidTransition.WithMessagef(
		"cannot move an order from %q to %q; valid next states: %s", from, to, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
