package model

import "time"

// DefectSeverity grades how badly a flaw affects the roll.
type DefectSeverity string

const (
	SeverityLow    DefectSeverity = "low"
	SeverityMedium DefectSeverity = "medium"
	SeverityHigh   DefectSeverity = "high"
)

// Valid reports whether s is one of the recognized severities.
func (s DefectSeverity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// FabricDefect represents one localized flaw recorded against a roll.
// The position range is roll-relative, in meters from the roll start.
type FabricDefect struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	FabricRollID int64          `gorm:"index;not null" json:"fabricRollId"`
	DefectCode   string         `gorm:"size:32;not null" json:"defectCode"`
	StartMeter   float64        `gorm:"not null" json:"startMeter"`
	EndMeter     float64        `gorm:"not null" json:"endMeter"`
	Width        float64        `gorm:"not null" json:"width"`
	Severity     DefectSeverity `gorm:"size:16;not null" json:"severity"`
	Description  string         `gorm:"size:512" json:"description"`
	CreatedAt    time.Time      `json:"createdAt"`
}
