package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadStatus_Next(t *testing.T) {
	tests := []struct {
		from LeadStatus
		ev   LeadEvent
		to   LeadStatus
		ok   bool
	}{
		{LeadStatusPending, EventAssign, LeadStatusAssigned, true},
		{LeadStatusAssigned, EventStart, LeadStatusInProgress, true},
		{LeadStatusInProgress, EventComplete, LeadStatusCompleted, true},
		{LeadStatusAssigned, EventReject, LeadStatusRejected, true},
		{LeadStatusInProgress, EventReject, LeadStatusRejected, true},
		{LeadStatusInProgress, EventRequeue, LeadStatusPending, true},
		{LeadStatusPending, EventReassign, LeadStatusAssigned, true},

		{LeadStatusAssigned, EventAssign, "", false},
		{LeadStatusAssigned, EventComplete, "", false},
		{LeadStatusPending, EventStart, "", false},
		{LeadStatusCompleted, EventReject, "", false},
		{LeadStatusRejected, EventRequeue, "", false},
		{LeadStatusCompleted, EventReassign, "", false},
		{LeadStatusPending, LeadEvent("archive"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			next, err := tt.from.Next(tt.ev)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, next)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, next)
		})
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, s := range []LeadStatus{LeadStatusCompleted, LeadStatusRejected} {
		assert.True(t, s.IsTerminal())
		for ev := range leadTransitions {
			_, err := s.Next(ev)
			assert.Error(t, err, "%s/%s", s, ev)
		}
	}
}

func TestSourceStatuses_ReturnsCopy(t *testing.T) {
	src := SourceStatuses(EventReject)
	assert.Equal(t, []LeadStatus{LeadStatusAssigned, LeadStatusInProgress}, src)

	src[0] = LeadStatusCompleted
	assert.Equal(t, LeadStatusAssigned, SourceStatuses(EventReject)[0])
	assert.Nil(t, SourceStatuses(LeadEvent("archive")))
}

func TestAgentAction_Event(t *testing.T) {
	ev, err := ActionComplete.Event()
	require.NoError(t, err)
	assert.Equal(t, EventComplete, ev)

	_, err = AgentAction("requeue").Event()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
