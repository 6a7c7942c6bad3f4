package models

import "time"

// BotLease records which process is running the bot for a platform. Only
// the holder polls for messages and posts digests.
type BotLease struct {
	Platform      string `gorm:"primaryKey;size:32"`
	Holder        string `gorm:"size:255;not null"`
	AcquiredAt    time.Time
	LastHeartbeat time.Time
}
