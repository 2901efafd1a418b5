package workflow

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fabric-inspection-backend/internal/model"
	"fabric-inspection-backend/internal/notification"
	"fabric-inspection-backend/internal/parse"
	"fabric-inspection-backend/internal/qcerr"
	"fabric-inspection-backend/internal/reconcile"
	"fabric-inspection-backend/internal/store"
	"fabric-inspection-backend/internal/telemetry"
)

// Notifier dispatches a finalization event to the notification worker pool.
type Notifier interface {
	Dispatch(ev notification.FinalizeEvent)
}

// Session is the single-workstation inspection workflow: it owns the
// WorkflowState, the currently selected roll and its defect ledger, and wires
// barcode resolution, measurement merging and the roll lifecycle together.
//
// The mutex only guards in-memory state. Collaborator calls run outside the
// lock so the workstation stays responsive while a call is in flight; the
// in-flight flags in WorkflowState (and the defect-op counter) provide the
// serialization the workflow needs.
type Session struct {
	store    store.Store
	notifier Notifier

	mu      sync.Mutex
	state   WorkflowState
	roll    *model.FabricRoll
	defects []model.FabricDefect

	poller *telemetry.Poller

	// defectOps counts in-flight defect mutations; finalize is held back
	// while it is non-zero. finalizing blocks new defect mutations the
	// other way around.
	defectOps  int
	finalizing bool
}

// NewSession creates a session with a fresh workflow state.
func NewSession(s store.Store, notifier Notifier) *Session {
	return &Session{
		store:    s,
		notifier: notifier,
		state:    NewState(uuid.NewString()),
	}
}

// AttachPoller hands the session the telemetry poller so convenience
// operations can read live channel values.
func (s *Session) AttachPoller(p *telemetry.Poller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poller = p
}

// State returns a copy of the current workflow state.
func (s *Session) State() WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Roll returns a copy of the selected roll, or nil while scanning/drafting.
func (s *Session) Roll() *model.FabricRoll {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roll == nil {
		return nil
	}
	roll := *s.roll
	return &roll
}

// Defects returns the current ledger as last refreshed from the store.
func (s *Session) Defects() []model.FabricDefect {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FabricDefect, len(s.defects))
	copy(out, s.defects)
	return out
}

// SelectTab switches the active tab; selecting a disabled tab is a no-op.
func (s *Session) SelectTab(tab Tab) WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, TabSelected{Tab: tab})
	return s.state
}

// ResolveResult is the outcome of a barcode resolution.
type ResolveResult struct {
	Found          bool                 `json:"found"`
	Roll           *model.FabricRoll    `json:"roll,omitempty"`
	Defects        []model.FabricDefect `json:"defects,omitempty"`
	PrefillBarcode string               `json:"prefillBarcode,omitempty"`
}

// Resolve maps a scanned or typed barcode to an existing roll, or signals
// that a new roll should be drafted with the barcode pre-filled. Only one
// resolution may be in flight at a time.
func (s *Session) Resolve(ctx context.Context, raw string) (*ResolveResult, error) {
	barCode := parse.Barcode(raw)
	if barCode == "" {
		return nil, qcerr.Validation("barCode", "barcode is empty")
	}

	s.mu.Lock()
	if s.state.Resolving {
		s.mu.Unlock()
		return nil, qcerr.Conflict("a barcode resolution is already in progress")
	}
	s.state = Reduce(s.state, ResolveStarted{})
	s.mu.Unlock()

	roll, err := s.store.GetRollByBarcode(ctx, barCode)
	if err != nil {
		var nf *qcerr.NotFoundError
		if errors.As(err, &nf) {
			s.mu.Lock()
			s.roll = nil
			s.defects = nil
			s.state = Reduce(s.state, RollMissed{Barcode: barCode})
			s.mu.Unlock()
			return &ResolveResult{Found: false, PrefillBarcode: barCode}, nil
		}
		s.mu.Lock()
		s.state = Reduce(s.state, ResolveFailed{})
		s.mu.Unlock()
		return nil, err
	}

	defects, err := s.store.ListDefects(ctx, roll.ID)
	if err != nil {
		s.mu.Lock()
		s.state = Reduce(s.state, ResolveFailed{})
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.roll = roll
	s.defects = defects
	s.state = Reduce(s.state, RollLoaded{RollID: roll.ID})
	s.mu.Unlock()

	return &ResolveResult{Found: true, Roll: roll, Defects: defects}, nil
}

// CreateRollInput carries the roll form fields submitted from the draft.
type CreateRollInput struct {
	BarCode      string  `json:"barCode"`
	BatchNo      string  `json:"batchNo"`
	FabricTypeID int64   `json:"fabricTypeId"`
	Color        string  `json:"color"`
	MachineID    int64   `json:"machineId"`
	Notes        string  `json:"notes"`
	Width        float64 `json:"width"`
	Length       float64 `json:"length"`
	Weight       float64 `json:"weight"`
}

// CreateRoll persists the drafted roll with status active. On failure the
// draft condition is retained and the error surfaces to the operator.
func (s *Session) CreateRoll(ctx context.Context, in CreateRollInput, operatorID string) (*model.FabricRoll, error) {
	barCode := parse.Barcode(in.BarCode)
	if barCode == "" {
		return nil, qcerr.Validation("barCode", "barcode is required")
	}
	if strings.TrimSpace(in.BatchNo) == "" {
		return nil, qcerr.Validation("batchNo", "batch number is required")
	}
	if in.FabricTypeID <= 0 {
		return nil, qcerr.Validation("fabricTypeId", "fabric type is required")
	}
	if strings.TrimSpace(operatorID) == "" {
		return nil, qcerr.Validation("operatorId", "operator is required")
	}

	roll := &model.FabricRoll{
		BarCode:      barCode,
		BatchNo:      strings.TrimSpace(in.BatchNo),
		FabricTypeID: in.FabricTypeID,
		Color:        in.Color,
		MachineID:    in.MachineID,
		Notes:        in.Notes,
		Width:        in.Width,
		Length:       in.Length,
		Weight:       in.Weight,
		OperatorID:   operatorID,
	}
	if err := s.store.CreateRoll(ctx, roll); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.roll = roll
	s.defects = nil
	s.state = Reduce(s.state, RollCreated{RollID: roll.ID})
	s.mu.Unlock()

	return roll, nil
}

// UpdateRoll applies a partial field update to an active roll and refreshes
// the session copy.
func (s *Session) UpdateRoll(ctx context.Context, rollID int64, fields map[string]any) (*model.FabricRoll, error) {
	if err := s.store.UpdateRollFields(ctx, rollID, fields); err != nil {
		return nil, err
	}
	roll, err := s.store.GetRoll(ctx, rollID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.roll != nil && s.roll.ID == rollID {
		s.roll = roll
	}
	s.mu.Unlock()

	return roll, nil
}

// DefectInput carries the defect entry dialog fields.
type DefectInput struct {
	DefectCode  string               `json:"defectCode"`
	StartMeter  float64              `json:"startMeter"`
	EndMeter    float64              `json:"endMeter"`
	Width       float64              `json:"width"`
	Severity    model.DefectSeverity `json:"severity"`
	Description string               `json:"description"`
}

func (in DefectInput) validate() error {
	if strings.TrimSpace(in.DefectCode) == "" {
		return qcerr.Validation("defectCode", "defect code is required")
	}
	if in.StartMeter < 0 {
		return qcerr.Validation("startMeter", "must not be negative")
	}
	if in.EndMeter < in.StartMeter {
		return qcerr.Validation("endMeter", "must not precede startMeter")
	}
	if in.Width <= 0 {
		return qcerr.Validation("width", "must be positive")
	}
	if !in.Severity.Valid() {
		return qcerr.Validation("severity", "must be low, medium or high")
	}
	return nil
}

// AddDefect validates and appends a defect to the active roll's ledger, then
// refreshes the ledger from the store. No partial write occurs on rejection.
func (s *Session) AddDefect(ctx context.Context, rollID int64, in DefectInput) ([]model.FabricDefect, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if err := s.beginDefectOp(); err != nil {
		return nil, err
	}
	defer s.endDefectOp()

	defect := &model.FabricDefect{
		FabricRollID: rollID,
		DefectCode:   strings.TrimSpace(in.DefectCode),
		StartMeter:   in.StartMeter,
		EndMeter:     in.EndMeter,
		Width:        in.Width,
		Severity:     in.Severity,
		Description:  in.Description,
	}
	if err := s.store.CreateDefect(ctx, defect); err != nil {
		return nil, err
	}

	return s.refreshDefects(ctx, rollID)
}

// AddDefectAtCurrentPosition seeds a defect at the live length reading: the
// range starts at the current meter count and spans 0.1 m. Only available
// while the length channel has a non-zero reading.
func (s *Session) AddDefectAtCurrentPosition(ctx context.Context, rollID int64, in DefectInput) ([]model.FabricDefect, error) {
	s.mu.Lock()
	poller := s.poller
	s.mu.Unlock()

	if poller == nil {
		return nil, qcerr.Validation("startMeter", "no live length reading available")
	}
	reading := poller.Reading(telemetry.ChannelLength)
	if reading.Value == 0 {
		return nil, qcerr.Validation("startMeter", "no live length reading available")
	}

	in.StartMeter = reading.Value
	in.EndMeter = reading.Value + 0.1
	return s.AddDefect(ctx, rollID, in)
}

// RequestDefectDelete registers the confirmation step for removing a defect.
func (s *Session) RequestDefectDelete(defectID int64) (WorkflowState, error) {
	if defectID <= 0 {
		return WorkflowState{}, qcerr.Validation("defectId", "defect id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, DefectDeleteRequested{DefectID: defectID})
	return s.state, nil
}

// RemoveDefect deletes a defect after its removal was confirmed, then
// refreshes the ledger. Removing a defect that no longer exists reports
// NotFoundError.
func (s *Session) RemoveDefect(ctx context.Context, defectID int64) ([]model.FabricDefect, error) {
	s.mu.Lock()
	if s.state.PendingDefectDelete != defectID {
		s.mu.Unlock()
		return nil, qcerr.Conflict("defect removal has not been confirmed")
	}
	rollID := s.state.RollID
	s.mu.Unlock()

	if err := s.beginDefectOp(); err != nil {
		return nil, err
	}
	defer s.endDefectOp()

	err := s.store.DeleteDefect(ctx, defectID)

	s.mu.Lock()
	s.state = Reduce(s.state, DefectDeleteClosed{})
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return s.refreshDefects(ctx, rollID)
}

// RequestFinalize opens the confirmation step for the given outcome. The
// transition itself only happens on ConfirmFinalize.
func (s *Session) RequestFinalize(rollID int64, intent FinalizeIntent) (WorkflowState, error) {
	if _, ok := intent.Outcome(); !ok {
		return WorkflowState{}, qcerr.Validation("outcome", "must be complete or reject")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roll == nil || s.state.RollID != rollID {
		return WorkflowState{}, qcerr.NotFound("active roll", strconv.FormatInt(rollID, 10))
	}
	if s.roll.Status != model.RollStatusActive {
		return WorkflowState{}, qcerr.Validation("status", "roll is not active")
	}
	if s.defectOps > 0 {
		return WorkflowState{}, qcerr.Conflict("a defect change is still being saved")
	}
	s.state = Reduce(s.state, FinalizeRequested{Intent: intent})
	return s.state, nil
}

// CancelFinalize dismisses a pending confirmation.
func (s *Session) CancelFinalize() WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, FinalizeCancelled{})
	return s.state
}

// ConfirmFinalize commits the pending terminal transition. There is no undo
// once the store acknowledges it: the session navigates back to the scan view
// and a supervisor notification is dispatched. On failure the roll stays
// active and the pending intent is kept so the operator can retry.
func (s *Session) ConfirmFinalize(ctx context.Context) (*model.FabricRoll, error) {
	s.mu.Lock()
	intent := s.state.PendingFinalize
	outcome, ok := intent.Outcome()
	if !ok {
		s.mu.Unlock()
		return nil, qcerr.Conflict("no finalization is pending")
	}
	if s.defectOps > 0 {
		s.mu.Unlock()
		return nil, qcerr.Conflict("a defect change is still being saved")
	}
	if s.finalizing {
		s.mu.Unlock()
		return nil, qcerr.Conflict("finalization is already in progress")
	}
	rollID := s.state.RollID
	s.finalizing = true
	s.mu.Unlock()

	err := s.store.FinalizeRoll(ctx, rollID, outcome)

	s.mu.Lock()
	s.finalizing = false
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var finalized model.FabricRoll
	if s.roll != nil {
		s.roll.Status = outcome
		finalized = *s.roll
	}
	ev := notification.FinalizeEvent{
		RollID:  rollID,
		BarCode: finalized.BarCode,
		Outcome: string(outcome),
	}
	s.roll = nil
	s.defects = nil
	s.state = Reduce(s.state, RollFinalized{})
	notifier := s.notifier
	s.mu.Unlock()

	if notifier != nil {
		notifier.Dispatch(ev)
	}
	return &finalized, nil
}

// ObserveReading implements telemetry.Observer: polled non-zero readings are
// merged into the selected active roll. Failures here are best effort, like
// the polling that produced them.
func (s *Session) ObserveReading(ch telemetry.Channel, value float64) {
	s.mu.Lock()
	if s.roll == nil || s.roll.Status != model.RollStatusActive {
		s.mu.Unlock()
		return
	}
	field, changed := reconcile.Merge(s.roll, ch, value)
	rollID := s.roll.ID
	s.mu.Unlock()

	if !changed {
		return
	}
	if err := s.store.SetRollMeasurement(context.Background(), rollID, field, value); err != nil {
		log.Printf("Failed to persist %s reading for roll %d: %v", ch, rollID, err)
	}
}

// ApplyManual records an operator-typed measurement. It always wins
// immediately over whatever a poll put in the field.
func (s *Session) ApplyManual(ctx context.Context, ch telemetry.Channel, value float64) (*model.FabricRoll, error) {
	s.mu.Lock()
	if s.roll == nil || s.roll.Status != model.RollStatusActive {
		s.mu.Unlock()
		return nil, qcerr.Validation("roll", "no active roll is selected")
	}
	field, ok := reconcile.Apply(s.roll, ch, value)
	if !ok {
		s.mu.Unlock()
		return nil, qcerr.Validation("channel", "must be weight or length")
	}
	rollID := s.roll.ID
	roll := *s.roll
	s.mu.Unlock()

	if err := s.store.SetRollMeasurement(ctx, rollID, field, value); err != nil {
		return nil, err
	}
	return &roll, nil
}

func (s *Session) beginDefectOp() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizing || s.state.PendingFinalize != IntentNone {
		return qcerr.Conflict("finalization is in progress")
	}
	s.defectOps++
	return nil
}

func (s *Session) endDefectOp() {
	s.mu.Lock()
	s.defectOps--
	s.mu.Unlock()
}

func (s *Session) refreshDefects(ctx context.Context, rollID int64) ([]model.FabricDefect, error) {
	defects, err := s.store.ListDefects(ctx, rollID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.state.RollID == rollID {
		s.defects = defects
	}
	s.mu.Unlock()
	return defects, nil
}
