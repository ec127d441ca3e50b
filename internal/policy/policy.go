// Package policy is the access policy evaluator: pure predicates over
// directory facts and ticket ownership fields. It never mutates state and
// it denies rather than erroring when profile data is missing.
package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// Capability is a cross-cutting ability granted through named groups
// (or, for ViewAllTickets, the staff flag).
type Capability string

const (
	CapViewAllTickets Capability = "view_all_tickets"
	CapSeeReports     Capability = "see_reports"
	CapBroadcast      Capability = "broadcast"
	CapExternalAccess Capability = "external_access"
)

// DefaultGroupCapabilities maps the directory's named groups to
// capabilities. The group set stays open: unmapped groups simply grant
// nothing.
func DefaultGroupCapabilities() map[string]Capability {
	return map[string]Capability{
		"Ver todos los tickets": CapViewAllTickets,
		"Informe":               CapSeeReports,
		"Enviar Avisos":         CapBroadcast,
		"CP Access":             CapExternalAccess,
	}
}

// CapabilitySet is the resolved capability set of one account.
type CapabilitySet map[Capability]struct{}

// Has reports whether the set contains cap.
func (s CapabilitySet) Has(cap Capability) bool {
	_, ok := s[cap]
	return ok
}

// Evaluator resolves capabilities and visibility. The group-to-capability
// mapping is data-driven so a renamed group is a config change, not a
// code change.
type Evaluator struct {
	groupCaps map[string]Capability
}

// NewEvaluator builds an evaluator with the default group mapping.
func NewEvaluator() *Evaluator {
	return &Evaluator{groupCaps: DefaultGroupCapabilities()}
}

// NewEvaluatorWithMapping builds an evaluator with a custom group mapping.
func NewEvaluatorWithMapping(mapping map[string]Capability) *Evaluator {
	caps := make(map[string]Capability, len(mapping))
	for group, capability := range mapping {
		caps[group] = capability
	}
	return &Evaluator{groupCaps: caps}
}

// Resolve computes the account's capability set. The staff flag and the
// named group both grant ViewAllTickets; they are checked independently.
func (e *Evaluator) Resolve(account *domain.Account) CapabilitySet {
	set := CapabilitySet{}
	if account == nil {
		return set
	}
	if account.IsStaff {
		set[CapViewAllTickets] = struct{}{}
	}
	for _, group := range account.Groups {
		if capability, ok := e.groupCaps[group]; ok {
			set[capability] = struct{}{}
		}
	}
	return set
}

// CanViewTicket is true if any of: the account holds ViewAllTickets, is the
// ticket's creator, is its assigned account, or shares its assigned area.
// A missing home area degrades the area clause to false.
func (e *Evaluator) CanViewTicket(account *domain.Account, ticket *domain.Ticket) bool {
	if account == nil || ticket == nil {
		return false
	}
	if e.Resolve(account).Has(CapViewAllTickets) {
		return true
	}
	if ticket.CreatorID == account.ID {
		return true
	}
	if ticket.AssignedAccountID != nil && *ticket.AssignedAccountID == account.ID {
		return true
	}
	if area := account.HomeArea(); area != "" && ticket.AreaID != nil && *ticket.AreaID == area {
		return true
	}
	return false
}

// CanViewTask is true if any of: the account is a superuser, is the task's
// creator, belongs to one of the task's assigned areas, or belongs to the
// assigned area of at least one child ticket.
func (e *Evaluator) CanViewTask(account *domain.Account, task *domain.Task) bool {
	if account == nil || task == nil {
		return false
	}
	if account.IsSuperuser {
		return true
	}
	if task.CreatorID == account.ID {
		return true
	}
	area := account.HomeArea()
	if area == "" {
		return false
	}
	for _, id := range task.AreaIDs {
		if id == area {
			return true
		}
	}
	for _, id := range task.ChildAreaIDs {
		if id == area {
			return true
		}
	}
	return false
}

// TaskMember reports whether the viewer gets full child-ticket visibility
// on the task: creator, superuser, or member of an assigned area. Everyone
// else only sees children routed to their own area.
func (e *Evaluator) TaskMember(account *domain.Account, task *domain.Task) bool {
	if account == nil || task == nil {
		return false
	}
	if account.IsSuperuser || task.CreatorID == account.ID {
		return true
	}
	area := account.HomeArea()
	if area == "" {
		return false
	}
	for _, id := range task.AreaIDs {
		if id == area {
			return true
		}
	}
	return false
}

// CanModifyAccount gates role, area, group, activation and password edits
// on other accounts. Staff only, and never against the actor's own
// account, regardless of flags.
func (e *Evaluator) CanModifyAccount(actor *domain.Account, targetID string) bool {
	if actor == nil || !actor.IsStaff {
		return false
	}
	return actor.ID != targetID
}

// CanBroadcast gates announcement creation.
func (e *Evaluator) CanBroadcast(account *domain.Account) bool {
	return e.Resolve(account).Has(CapBroadcast)
}

// CanSeeReports gates the stale-ticket report.
func (e *Evaluator) CanSeeReports(account *domain.Account) bool {
	return e.Resolve(account).Has(CapSeeReports)
}

// CanUseExternalAccess gates the external credential check.
func (e *Evaluator) CanUseExternalAccess(account *domain.Account) bool {
	return e.Resolve(account).Has(CapExternalAccess)
}
