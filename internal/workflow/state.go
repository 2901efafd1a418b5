package workflow

import "fabric-inspection-backend/internal/model"

// View identifies which workstation pane is in front of the operator.
type View string

const (
	// ViewScan is the barcode entry pane shown before a roll is selected.
	ViewScan View = "scan"
	// ViewInspection is the two-tab pane for the selected or drafted roll.
	ViewInspection View = "inspection"
)

// Tab identifies the active tab inside the inspection view.
type Tab string

const (
	TabRollInfo Tab = "roll_info"
	TabDefects  Tab = "defects"
)

// FinalizeIntent is the confirmed outcome the operator is about to commit.
// The same confirmation dialog serves both outcomes; the intent travels as
// data instead of branching on strings in the handlers.
type FinalizeIntent string

const (
	IntentNone     FinalizeIntent = ""
	IntentComplete FinalizeIntent = "complete"
	IntentReject   FinalizeIntent = "reject"
)

// Outcome maps the intent to the terminal roll status it produces.
func (i FinalizeIntent) Outcome() (model.RollStatus, bool) {
	switch i {
	case IntentComplete:
		return model.RollStatusCompleted, true
	case IntentReject:
		return model.RollStatusRejected, true
	}
	return "", false
}

// WorkflowState is the explicit, serializable UI state owned by the session.
// It is never mutated in place: every change goes through Reduce.
type WorkflowState struct {
	SessionID           string         `json:"sessionId"`
	View                View           `json:"view"`
	ActiveTab           Tab            `json:"activeTab"`
	DefectsEnabled      bool           `json:"defectsEnabled"`
	RollID              int64          `json:"rollId"`
	PrefillBarcode      string         `json:"prefillBarcode"`
	Resolving           bool           `json:"resolving"`
	PendingFinalize     FinalizeIntent `json:"pendingFinalize"`
	PendingDefectDelete int64          `json:"pendingDefectDelete"`
}

// NewState returns the initial state for a fresh workstation session.
func NewState(sessionID string) WorkflowState {
	return WorkflowState{
		SessionID: sessionID,
		View:      ViewScan,
		ActiveTab: TabRollInfo,
	}
}

// Event is one workflow occurrence fed into Reduce.
type Event interface {
	isEvent()
}

// ResolveStarted marks a barcode resolution going in flight.
type ResolveStarted struct{}

// ResolveFailed marks a resolution ending in an error; nothing else changes.
type ResolveFailed struct{}

// RollMissed marks a resolution that found no roll: the operator is moved to
// the roll form with the scanned barcode pre-filled, defects tab disabled.
type RollMissed struct{ Barcode string }

// RollLoaded marks a resolution that found an existing roll.
type RollLoaded struct{ RollID int64 }

// RollCreated marks a draft roll acquiring its persisted identity.
type RollCreated struct{ RollID int64 }

// TabSelected is an explicit operator tab switch.
type TabSelected struct{ Tab Tab }

// FinalizeRequested opens the confirmation step for the given intent.
type FinalizeRequested struct{ Intent FinalizeIntent }

// FinalizeCancelled dismisses the confirmation step.
type FinalizeCancelled struct{}

// RollFinalized marks the terminal transition being acknowledged; the session
// navigates away from the inspection view.
type RollFinalized struct{}

// DefectDeleteRequested opens the delete confirmation for one defect.
type DefectDeleteRequested struct{ DefectID int64 }

// DefectDeleteClosed dismisses the delete confirmation.
type DefectDeleteClosed struct{}

func (ResolveStarted) isEvent()        {}
func (ResolveFailed) isEvent()         {}
func (RollMissed) isEvent()            {}
func (RollLoaded) isEvent()            {}
func (RollCreated) isEvent()           {}
func (TabSelected) isEvent()           {}
func (FinalizeRequested) isEvent()     {}
func (FinalizeCancelled) isEvent()     {}
func (RollFinalized) isEvent()         {}
func (DefectDeleteRequested) isEvent() {}
func (DefectDeleteClosed) isEvent()    {}

// Reduce applies one event to the state and returns the next state. It is a
// pure function; validation and side effects live in the Session.
func Reduce(s WorkflowState, ev Event) WorkflowState {
	switch ev := ev.(type) {
	case ResolveStarted:
		s.Resolving = true
	case ResolveFailed:
		s.Resolving = false
	case RollMissed:
		s.Resolving = false
		s.View = ViewInspection
		s.ActiveTab = TabRollInfo
		s.DefectsEnabled = false
		s.RollID = 0
		s.PrefillBarcode = ev.Barcode
		s.PendingFinalize = IntentNone
		s.PendingDefectDelete = 0
	case RollLoaded:
		s.Resolving = false
		s.View = ViewInspection
		s.ActiveTab = TabDefects
		s.DefectsEnabled = true
		s.RollID = ev.RollID
		s.PrefillBarcode = ""
		s.PendingFinalize = IntentNone
		s.PendingDefectDelete = 0
	case RollCreated:
		s.View = ViewInspection
		s.ActiveTab = TabDefects
		s.DefectsEnabled = true
		s.RollID = ev.RollID
		s.PrefillBarcode = ""
	case TabSelected:
		if ev.Tab == TabDefects && !s.DefectsEnabled {
			return s
		}
		s.ActiveTab = ev.Tab
	case FinalizeRequested:
		if s.RollID == 0 {
			return s
		}
		s.PendingFinalize = ev.Intent
	case FinalizeCancelled:
		s.PendingFinalize = IntentNone
	case RollFinalized:
		s.View = ViewScan
		s.ActiveTab = TabRollInfo
		s.DefectsEnabled = false
		s.RollID = 0
		s.PrefillBarcode = ""
		s.PendingFinalize = IntentNone
		s.PendingDefectDelete = 0
	case DefectDeleteRequested:
		s.PendingDefectDelete = ev.DefectID
	case DefectDeleteClosed:
		s.PendingDefectDelete = 0
	}
	return s
}
