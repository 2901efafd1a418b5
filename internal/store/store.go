package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"fabric-inspection-backend/internal/model"
	"fabric-inspection-backend/internal/qcerr"
)

// Store defines the interface for all roll and defect persistence operations.
type Store interface {
	CreateRoll(ctx context.Context, roll *model.FabricRoll) error
	GetRoll(ctx context.Context, id int64) (*model.FabricRoll, error)
	GetRollByBarcode(ctx context.Context, barCode string) (*model.FabricRoll, error)
	UpdateRollFields(ctx context.Context, id int64, fields map[string]any) error
	SetRollMeasurement(ctx context.Context, id int64, field MeasurementField, value float64) error
	FinalizeRoll(ctx context.Context, id int64, outcome model.RollStatus) error

	CreateDefect(ctx context.Context, defect *model.FabricDefect) error
	ListDefects(ctx context.Context, rollID int64) ([]model.FabricDefect, error)
	DeleteDefect(ctx context.Context, defectID int64) error

	ListDefectCodes(ctx context.Context) ([]model.DefectCode, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateRoll persists a new roll. The id is assigned by the database and the
// status is forced to active regardless of what the caller set.
func (s *gormStore) CreateRoll(ctx context.Context, roll *model.FabricRoll) error {
	roll.ID = 0
	roll.Status = model.RollStatusActive
	if err := s.db.WithContext(ctx).Create(roll).Error; err != nil {
		return qcerr.Integration("create roll", err)
	}
	return nil
}

func (s *gormStore) GetRoll(ctx context.Context, id int64) (*model.FabricRoll, error) {
	var roll model.FabricRoll
	err := s.db.WithContext(ctx).First(&roll, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, qcerr.NotFound("roll", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, qcerr.Integration("fetch roll", err)
	}
	return &roll, nil
}

// GetRollByBarcode resolves a business barcode to its roll. A miss is reported
// as NotFoundError so callers can branch into the create-new flow.
func (s *gormStore) GetRollByBarcode(ctx context.Context, barCode string) (*model.FabricRoll, error) {
	var roll model.FabricRoll
	err := s.db.WithContext(ctx).First(&roll, "bar_code = ?", barCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, qcerr.NotFound("roll", barCode)
	}
	if err != nil {
		return nil, qcerr.Integration("fetch roll by barcode", err)
	}
	return &roll, nil
}

// updatableRollColumns is the whitelist of columns the operator may edit while
// a roll is active. barCode, operatorId and status are immutable here.
var updatableRollColumns = map[string]bool{
	"batch_no":       true,
	"fabric_type_id": true,
	"color":          true,
	"machine_id":     true,
	"notes":          true,
	"width":          true,
	"length":         true,
	"weight":         true,
}

// UpdateRollFields applies a partial field update to an active roll.
func (s *gormStore) UpdateRollFields(ctx context.Context, id int64, fields map[string]any) error {
	updates := make(map[string]any, len(fields))
	for col, v := range fields {
		if !updatableRollColumns[col] {
			return qcerr.Validation(col, "field is not editable")
		}
		updates[col] = v
	}
	if len(updates) == 0 {
		return qcerr.Validation("fields", "no editable fields supplied")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roll, err := lockRoll(tx, id)
		if err != nil {
			return err
		}
		if roll.Status != model.RollStatusActive {
			return qcerr.Validation("status", "roll is not active")
		}
		if err := tx.Model(&model.FabricRoll{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return qcerr.Integration("update roll", err)
		}
		return nil
	})
}

// SetRollMeasurement writes a single measurement column. Used by the
// reconciler for both device readings and manual overrides.
func (s *gormStore) SetRollMeasurement(ctx context.Context, id int64, field MeasurementField, value float64) error {
	column := field.Column()
	if column == "" {
		return qcerr.Validation("field", fmt.Sprintf("unknown measurement field %q", string(field)))
	}
	res := s.db.WithContext(ctx).Model(&model.FabricRoll{}).
		Where("id = ? AND status = ?", id, model.RollStatusActive).
		Update(column, value)
	if res.Error != nil {
		return qcerr.Integration("set roll measurement", res.Error)
	}
	if res.RowsAffected == 0 {
		return qcerr.NotFound("active roll", strconv.FormatInt(id, 10))
	}
	return nil
}

// FinalizeRoll transitions an active roll to a terminal status. The status
// predicate in the UPDATE guarantees a terminal roll can never transition
// again, even if two finalize requests race.
func (s *gormStore) FinalizeRoll(ctx context.Context, id int64, outcome model.RollStatus) error {
	if !outcome.Terminal() {
		return qcerr.Validation("outcome", fmt.Sprintf("%q is not a terminal status", string(outcome)))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.FabricRoll{}).
			Where("id = ? AND status = ?", id, model.RollStatusActive).
			Update("status", outcome)
		if res.Error != nil {
			return qcerr.Integration("finalize roll", res.Error)
		}
		if res.RowsAffected == 0 {
			if _, err := lockRoll(tx, id); err != nil {
				return err
			}
			return qcerr.Validation("status", "roll is not active")
		}
		return nil
	})
}

// CreateDefect appends a defect to a roll's ledger. The owning roll must be
// active at the time of creation; the check runs inside the same transaction
// as the insert so the invariant holds.
func (s *gormStore) CreateDefect(ctx context.Context, defect *model.FabricDefect) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roll, err := lockRoll(tx, defect.FabricRollID)
		if err != nil {
			return err
		}
		if roll.Status != model.RollStatusActive {
			return qcerr.Validation("status", "roll is not active")
		}
		defect.ID = 0
		if err := tx.Create(defect).Error; err != nil {
			return qcerr.Integration("create defect", err)
		}
		return nil
	})
}

// ListDefects returns a roll's ledger in storage order.
func (s *gormStore) ListDefects(ctx context.Context, rollID int64) ([]model.FabricDefect, error) {
	var defects []model.FabricDefect
	if err := s.db.WithContext(ctx).
		Where("fabric_roll_id = ?", rollID).
		Order("id").
		Find(&defects).Error; err != nil {
		return nil, qcerr.Integration("list defects", err)
	}
	return defects, nil
}

// DeleteDefect removes a defect by id. Removing an id that no longer exists
// reports NotFoundError rather than succeeding silently.
func (s *gormStore) DeleteDefect(ctx context.Context, defectID int64) error {
	res := s.db.WithContext(ctx).Delete(&model.FabricDefect{}, defectID)
	if res.Error != nil {
		return qcerr.Integration("delete defect", res.Error)
	}
	if res.RowsAffected == 0 {
		return qcerr.NotFound("defect", strconv.FormatInt(defectID, 10))
	}
	return nil
}

func (s *gormStore) ListDefectCodes(ctx context.Context) ([]model.DefectCode, error) {
	var codes []model.DefectCode
	if err := s.db.WithContext(ctx).Order("code").Find(&codes).Error; err != nil {
		return nil, qcerr.Integration("list defect codes", err)
	}
	return codes, nil
}

// lockRoll fetches a roll inside tx, mapping a miss to NotFoundError.
func lockRoll(tx *gorm.DB, id int64) (*model.FabricRoll, error) {
	var roll model.FabricRoll
	err := tx.First(&roll, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, qcerr.NotFound("roll", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, qcerr.Integration("fetch roll", err)
	}
	return &roll, nil
}
