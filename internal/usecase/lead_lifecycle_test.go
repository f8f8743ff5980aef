package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func validLeadInput() usecase.CreateLeadInput {
	return usecase.CreateLeadInput{
		ClientName:  "Maria Souza",
		ClientEmail: "maria@example.com",
		ClientPhone: "(11) 98765-4321",
		ProductID:   "plano-familia",
		Message:     "Quero saber mais sobre o plano",
	}
}

func TestCreateLead_WithoutSellersGoesToQueue(t *testing.T) {
	f := newFixture(t)

	lead, err := f.lifecycle.Create(context.Background(), validLeadInput())

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusPending, lead.Status)
	require.NotNil(t, lead.QueuePosition)
	assert.Equal(t, 1, *lead.QueuePosition)

	received := f.notifier.ofType(entity.NotificationLeadReceived)
	assert.ElementsMatch(t, []string{"admin-1", "admin-2"}, recipients(received))
	assert.Len(t, f.notifier.ofType(entity.NotificationLeadQueued), 2)
}

func TestCreateLead_AssignsImmediately(t *testing.T) {
	f := newFixture(t)
	f.addSeller(t, "s-1")

	lead, err := f.lifecycle.Create(context.Background(), validLeadInput())

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusAssigned, lead.Status)
	assert.True(t, lead.IsAssignedTo("s-1"))
	assert.Nil(t, lead.QueuePosition)
	assert.Equal(t, "Maria Souza", lead.ClientName)
	assert.Len(t, f.notifier.ofType(entity.NotificationLeadAssigned), 1)
}

func TestCreateLead_AssignmentErrorFallsBackToQueue(t *testing.T) {
	f := newFixture(t)
	f.addSeller(t, "s-1")
	f.leads.failCount = true

	lead, err := f.lifecycle.Create(context.Background(), validLeadInput())

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusPending, lead.Status)
	assert.Nil(t, lead.AssignedTo)
	require.NotNil(t, lead.QueuePosition)
	assert.Equal(t, 1, *lead.QueuePosition)
	assert.Len(t, f.notifier.ofType(entity.NotificationLeadQueued), 2)

	f.leads.failCount = false
	n, err := f.queue.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.lead(t, lead.ID).IsAssignedTo("s-1"))
}

func TestCreateLead_AssignmentAndQueueErrorsReturnLead(t *testing.T) {
	f := newFixture(t)
	f.leads.failQueue = true

	lead, err := f.lifecycle.Create(context.Background(), validLeadInput())

	assert.True(t, usecase.IsTechnicalError(err))
	require.NotNil(t, lead)
	stored := f.lead(t, lead.ID)
	assert.Equal(t, entity.LeadStatusPending, stored.Status)
	assert.Nil(t, stored.QueuePosition)
}

func TestCreateLead_Validation(t *testing.T) {
	f := newFixture(t)

	input := validLeadInput()
	input.ClientEmail = "não-é-email"
	input.ClientPhone = "123"

	lead, err := f.lifecycle.Create(context.Background(), input)

	assert.Nil(t, lead)
	assert.Equal(t, usecase.CodeValidation, usecase.ErrorCode(err))
	assert.Contains(t, err.Error(), "client_email")
	assert.Contains(t, err.Error(), "client_phone")
	assert.Zero(t, f.notifier.count())
}

func TestApply_FullPath(t *testing.T) {
	f := newFixture(t)
	f.addLead(t, "L", assignedTo("s-1", entity.LeadStatusAssigned))

	lead, err := f.lifecycle.Apply(context.Background(), "L", "s-1", entity.ActionStart)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusInProgress, lead.Status)

	lead, err = f.lifecycle.Apply(context.Background(), "L", "s-1", entity.ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusCompleted, lead.Status)

	completed := f.notifier.ofType(entity.NotificationLeadCompleted)
	assert.ElementsMatch(t, []string{"admin-1", "admin-2"}, recipients(completed))
	assert.Equal(t, "s-1", completed[0].Data["agentId"])
}

func TestApply_RejectFromAssignedAndInProgress(t *testing.T) {
	f := newFixture(t)
	f.addLead(t, "a", assignedTo("s-1", entity.LeadStatusAssigned))
	f.addLead(t, "b", assignedTo("s-1", entity.LeadStatusInProgress))

	for _, id := range []string{"a", "b"} {
		lead, err := f.lifecycle.Apply(context.Background(), id, "s-1", entity.ActionReject)
		require.NoError(t, err, id)
		assert.Equal(t, entity.LeadStatusRejected, lead.Status, id)
	}
	assert.Len(t, f.notifier.ofType(entity.NotificationLeadRejected), 4)
}

func TestApply_OnlyOwnerCanAct(t *testing.T) {
	f := newFixture(t)
	f.addLead(t, "L", assignedTo("s-1", entity.LeadStatusAssigned))

	for _, action := range []entity.AgentAction{entity.ActionStart, entity.ActionComplete, entity.ActionReject} {
		lead, err := f.lifecycle.Apply(context.Background(), "L", "s-2", action)

		assert.Nil(t, lead)
		assert.Equal(t, usecase.CodeInvalidTransition, usecase.ErrorCode(err), action)
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
		assert.Equal(t, entity.LeadStatusAssigned, f.lead(t, "L").Status)
	}
}

func TestApply_InvalidTransitions(t *testing.T) {
	cases := []struct {
		from   entity.LeadStatus
		action entity.AgentAction
	}{
		{entity.LeadStatusAssigned, entity.ActionComplete},
		{entity.LeadStatusInProgress, entity.ActionStart},
		{entity.LeadStatusCompleted, entity.ActionReject},
		{entity.LeadStatusRejected, entity.ActionStart},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.action), func(t *testing.T) {
			f := newFixture(t)
			f.addLead(t, "L", assignedTo("s-1", tc.from))

			_, err := f.lifecycle.Apply(context.Background(), "L", "s-1", tc.action)

			assert.Equal(t, usecase.CodeInvalidTransition, usecase.ErrorCode(err))
			assert.Equal(t, tc.from, f.lead(t, "L").Status)
		})
	}
}

func TestApply_UnknownActionAndLead(t *testing.T) {
	f := newFixture(t)
	f.addLead(t, "L", assignedTo("s-1", entity.LeadStatusAssigned))

	_, err := f.lifecycle.Apply(context.Background(), "L", "s-1", entity.AgentAction("archive"))
	assert.Equal(t, usecase.CodeInvalidTransition, usecase.ErrorCode(err))

	_, err = f.lifecycle.Apply(context.Background(), "ghost", "s-1", entity.ActionStart)
	assert.Equal(t, usecase.CodeLeadNotFound, usecase.ErrorCode(err))
}

// Alguém mexeu no lead entre a leitura e a escrita: o guard da escrita barra.
type racingLeads struct {
	*faultyLeads
	before func()
}

func (r *racingLeads) UpdateFields(ctx context.Context, id string, u entity.LeadUpdate) (*entity.Lead, error) {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return r.faultyLeads.UpdateFields(ctx, id, u)
}

func TestApply_GuardIsCheckedOnWrite(t *testing.T) {
	f := newFixture(t)
	f.addLead(t, "L", assignedTo("s-1", entity.LeadStatusAssigned))

	other := "s-2"
	f.lifecycle.LeadRepo = &racingLeads{
		faultyLeads: f.leads,
		before: func() {
			_, err := f.store.Leads().UpdateFields(context.Background(), "L", entity.LeadUpdate{AssignedTo: &other})
			require.NoError(t, err)
		},
	}

	_, err := f.lifecycle.Apply(context.Background(), "L", "s-1", entity.ActionStart)

	assert.Equal(t, usecase.CodeInvalidTransition, usecase.ErrorCode(err))
	lead := f.lead(t, "L")
	assert.Equal(t, entity.LeadStatusAssigned, lead.Status)
	assert.True(t, lead.IsAssignedTo("s-2"))
}
