package model

import "time"

// PushSubscription holds a supervisor browser's push subscription. Subscribers
// are notified whenever a roll is finalized at this workstation.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}