package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	initial := NewState("ws-1")

	testCases := []struct {
		name   string
		events []Event
		check  func(t *testing.T, s WorkflowState)
	}{
		{
			name:   "scan miss pre-fills the roll form and keeps defects disabled",
			events: []Event{ResolveStarted{}, RollMissed{Barcode: "B-0001"}},
			check: func(t *testing.T, s WorkflowState) {
				assert.Equal(t, ViewInspection, s.View)
				assert.Equal(t, TabRollInfo, s.ActiveTab)
				assert.False(t, s.DefectsEnabled)
				assert.Equal(t, "B-0001", s.PrefillBarcode)
				assert.Zero(t, s.RollID)
				assert.False(t, s.Resolving)
			},
		},
		{
			name:   "loading an existing roll enables the defects tab",
			events: []Event{ResolveStarted{}, RollLoaded{RollID: 5}},
			check: func(t *testing.T, s WorkflowState) {
				assert.Equal(t, ViewInspection, s.View)
				assert.Equal(t, TabDefects, s.ActiveTab)
				assert.True(t, s.DefectsEnabled)
				assert.Equal(t, int64(5), s.RollID)
			},
		},
		{
			name:   "creating the drafted roll enables the defects tab",
			events: []Event{RollMissed{Barcode: "B-0002"}, RollCreated{RollID: 9}},
			check: func(t *testing.T, s WorkflowState) {
				assert.True(t, s.DefectsEnabled)
				assert.Equal(t, int64(9), s.RollID)
				assert.Empty(t, s.PrefillBarcode)
			},
		},
		{
			name:   "defects tab cannot be selected while disabled",
			events: []Event{RollMissed{Barcode: "B-0003"}, TabSelected{Tab: TabDefects}},
			check: func(t *testing.T, s WorkflowState) {
				assert.Equal(t, TabRollInfo, s.ActiveTab)
			},
		},
		{
			name:   "finalize intent requires a persisted roll",
			events: []Event{RollMissed{Barcode: "B-0004"}, FinalizeRequested{Intent: IntentComplete}},
			check: func(t *testing.T, s WorkflowState) {
				assert.Equal(t, IntentNone, s.PendingFinalize)
			},
		},
		{
			name:   "finalize intent is carried and can be cancelled",
			events: []Event{RollLoaded{RollID: 5}, FinalizeRequested{Intent: IntentReject}, FinalizeCancelled{}},
			check: func(t *testing.T, s WorkflowState) {
				assert.Equal(t, IntentNone, s.PendingFinalize)
			},
		},
		{
			name: "finalization resets the session to the scan view",
			events: []Event{
				RollLoaded{RollID: 5},
				DefectDeleteRequested{DefectID: 3},
				FinalizeRequested{Intent: IntentComplete},
				RollFinalized{},
			},
			check: func(t *testing.T, s WorkflowState) {
				assert.Equal(t, ViewScan, s.View)
				assert.Zero(t, s.RollID)
				assert.False(t, s.DefectsEnabled)
				assert.Equal(t, IntentNone, s.PendingFinalize)
				assert.Zero(t, s.PendingDefectDelete)
				assert.Equal(t, "ws-1", s.SessionID)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := initial
			for _, ev := range tc.events {
				s = Reduce(s, ev)
			}
			tc.check(t, s)
		})
	}
}

func TestFinalizeIntentOutcome(t *testing.T) {
	outcome, ok := IntentComplete.Outcome()
	assert.True(t, ok)
	assert.Equal(t, "completed", string(outcome))

	outcome, ok = IntentReject.Outcome()
	assert.True(t, ok)
	assert.Equal(t, "rejected", string(outcome))

	_, ok = IntentNone.Outcome()
	assert.False(t, ok)

	_, ok = FinalizeIntent("scrap").Outcome()
	assert.False(t, ok)
}
