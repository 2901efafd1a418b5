package model

import "time"

// RollStatus is the persisted lifecycle state of a fabric roll.
type RollStatus string

const (
	RollStatusActive    RollStatus = "active"
	RollStatusCompleted RollStatus = "completed"
	RollStatusRejected  RollStatus = "rejected"
)

// Terminal reports whether no further transition is allowed out of s.
func (s RollStatus) Terminal() bool {
	return s == RollStatusCompleted || s == RollStatusRejected
}

// FabricRoll represents one physical roll under inspection.
type FabricRoll struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	BarCode      string     `gorm:"uniqueIndex;size:64;not null" json:"barCode"`
	BatchNo      string     `gorm:"size:64;not null" json:"batchNo"`
	FabricTypeID int64      `gorm:"not null" json:"fabricTypeId"`
	Color        string     `gorm:"size:64" json:"color"`
	MachineID    int64      `json:"machineId"`
	Notes        string     `gorm:"size:1024" json:"notes"`
	Width        float64    `json:"width"`
	Length       float64    `json:"length"`
	Weight       float64    `json:"weight"`
	Status       RollStatus `gorm:"size:16;not null;index" json:"status"`
	OperatorID   string     `gorm:"size:64;not null" json:"operatorId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Associations
	Defects []FabricDefect `gorm:"foreignKey:FabricRollID" json:"defects,omitempty"`
}
