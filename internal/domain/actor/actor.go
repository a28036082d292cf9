// Package actor models the caller of a ledger operation and the capabilities
// each role carries.
package actor

import (
	"errors"
	"fmt"
)

var ErrForbidden = errors.New("forbidden")

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

type Capability string

const (
	CapApply         Capability = "loan:apply"
	CapViewAny       Capability = "loan:view_any"
	CapDecide        Capability = "loan:decide"
	CapReview        Capability = "loan:review"
	CapSchedule      Capability = "schedule:generate"
	CapRecordPayment Capability = "schedule:record_payment"
	CapAudit         Capability = "audit:read"
)

var grants = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewAny: true, CapDecide: true, CapReview: true,
		CapSchedule: true, CapRecordPayment: true, CapAudit: true,
	},
	RoleAgent: {
		CapViewAny: true, CapReview: true, CapAudit: true,
	},
	RoleCustomer: {
		CapApply: true, CapRecordPayment: true,
	},
}

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Can(c Capability) bool {
	return grants[a.Role][c]
}

// Require fails with ErrForbidden when the actor lacks c.
func (a Actor) Require(c Capability) error {
	if a.ID == "" || !a.Can(c) {
		return fmt.Errorf("%w: role %q lacks %s", ErrForbidden, a.Role, c)
	}
	return nil
}
