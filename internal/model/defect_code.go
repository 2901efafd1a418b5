package model

// DefectCode is one entry of the read-only defect-type catalog used to
// populate the defect entry dialog.
type DefectCode struct {
	Code        string `gorm:"primaryKey;size:32" json:"code"`
	Description string `gorm:"size:256;not null" json:"description"`
}
