package policy_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
)

func strptr(s string) *string { return &s }

// Every combination of the four independent grounds: view-all capability,
// creatorship, assignment, shared area. Visibility is their disjunction.
func TestCanViewTicketDisjunction(t *testing.T) {
	e := policy.NewEvaluator()

	for mask := 0; mask < 16; mask++ {
		viewAll := mask&1 != 0
		isCreator := mask&2 != 0
		isAssignee := mask&4 != 0
		sameArea := mask&8 != 0

		name := fmt.Sprintf("viewAll=%t creator=%t assignee=%t sameArea=%t",
			viewAll, isCreator, isAssignee, sameArea)
		t.Run(name, func(t *testing.T) {
			account := &domain.Account{ID: "viewer", IsActive: true}
			if viewAll {
				account.Groups = []string{"Ver todos los tickets"}
			}
			if sameArea {
				account.AreaID = strptr("area-it")
			} else {
				account.AreaID = strptr("area-other")
			}

			ticket := &domain.Ticket{
				ID:        "tck-1",
				CreatorID: "someone-else",
				AreaID:    strptr("area-it"),
			}
			if isCreator {
				ticket.CreatorID = account.ID
			}
			if isAssignee {
				ticket.AssignedAccountID = strptr(account.ID)
			}

			want := viewAll || isCreator || isAssignee || sameArea
			require.Equal(t, want, e.CanViewTicket(account, ticket))
		})
	}
}

func TestCanViewTicketNilSafety(t *testing.T) {
	e := policy.NewEvaluator()
	ticket := &domain.Ticket{ID: "tck-1", CreatorID: "c"}

	require.False(t, e.CanViewTicket(nil, ticket))
	require.False(t, e.CanViewTicket(&domain.Account{ID: "a"}, nil))

	// No home area and an area-less ticket: only creatorship counts.
	drifter := &domain.Account{ID: "a"}
	require.False(t, e.CanViewTicket(drifter, ticket))
	ticket.CreatorID = "a"
	require.True(t, e.CanViewTicket(drifter, ticket))
}

func TestStaffFlagGrantsViewAll(t *testing.T) {
	e := policy.NewEvaluator()
	staff := &domain.Account{ID: "s", IsStaff: true}
	ticket := &domain.Ticket{ID: "tck-1", CreatorID: "other", AreaID: strptr("area-x")}
	require.True(t, e.CanViewTicket(staff, ticket))
	require.True(t, e.Resolve(staff).Has(policy.CapViewAllTickets))
}

func TestGroupCapabilityMapping(t *testing.T) {
	e := policy.NewEvaluator()

	cases := []struct {
		group string
		want  policy.Capability
	}{
		{"Ver todos los tickets", policy.CapViewAllTickets},
		{"Informe", policy.CapSeeReports},
		{"Enviar Avisos", policy.CapBroadcast},
		{"CP Access", policy.CapExternalAccess},
	}
	for _, tc := range cases {
		t.Run(tc.group, func(t *testing.T) {
			account := &domain.Account{ID: "a", Groups: []string{tc.group}}
			require.True(t, e.Resolve(account).Has(tc.want))
		})
	}

	// Unmapped groups grant nothing.
	account := &domain.Account{ID: "a", Groups: []string{"Coffee Club"}}
	require.Empty(t, e.Resolve(account))
}

func TestCustomGroupMapping(t *testing.T) {
	e := policy.NewEvaluatorWithMapping(map[string]policy.Capability{
		"Dispatch": policy.CapViewAllTickets,
	})
	account := &domain.Account{ID: "a", Groups: []string{"Dispatch"}}
	require.True(t, e.Resolve(account).Has(policy.CapViewAllTickets))

	// The default names mean nothing under a custom mapping.
	legacy := &domain.Account{ID: "b", Groups: []string{"Informe"}}
	require.False(t, e.Resolve(legacy).Has(policy.CapSeeReports))
}

func TestCanViewTask(t *testing.T) {
	e := policy.NewEvaluator()
	task := &domain.Task{
		ID:           "tsk-1",
		CreatorID:    "creator",
		AreaIDs:      []string{"area-it"},
		ChildAreaIDs: []string{"area-it", "area-maint"},
	}

	require.True(t, e.CanViewTask(&domain.Account{ID: "creator"}, task))
	require.True(t, e.CanViewTask(&domain.Account{ID: "x", IsSuperuser: true}, task))
	require.True(t, e.CanViewTask(&domain.Account{ID: "x", AreaID: strptr("area-it")}, task))
	require.True(t, e.CanViewTask(&domain.Account{ID: "x", AreaID: strptr("area-maint")}, task))
	require.False(t, e.CanViewTask(&domain.Account{ID: "x", AreaID: strptr("area-hr")}, task))
	require.False(t, e.CanViewTask(&domain.Account{ID: "x"}, task))
}

func TestTaskMemberExcludesChildAreaViewers(t *testing.T) {
	e := policy.NewEvaluator()
	task := &domain.Task{
		ID:           "tsk-1",
		CreatorID:    "creator",
		AreaIDs:      []string{"area-it"},
		ChildAreaIDs: []string{"area-maint"},
	}

	require.True(t, e.TaskMember(&domain.Account{ID: "creator"}, task))
	require.True(t, e.TaskMember(&domain.Account{ID: "x", AreaID: strptr("area-it")}, task))
	// Visible through a child, but not a member.
	viewer := &domain.Account{ID: "x", AreaID: strptr("area-maint")}
	require.True(t, e.CanViewTask(viewer, task))
	require.False(t, e.TaskMember(viewer, task))
}

func TestCanModifyAccountSelfGuard(t *testing.T) {
	e := policy.NewEvaluator()
	staff := &domain.Account{ID: "admin", IsStaff: true}

	require.True(t, e.CanModifyAccount(staff, "other"))
	require.False(t, e.CanModifyAccount(staff, "admin"))
	require.False(t, e.CanModifyAccount(&domain.Account{ID: "x"}, "other"))
	require.False(t, e.CanModifyAccount(nil, "other"))
}
