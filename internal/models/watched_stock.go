package models

import "time"

// WatchedStock is a watchlist entry the background scanner analyzes.
type WatchedStock struct {
	ID      uint      `gorm:"primarykey" json:"id"`
	Symbol  string    `gorm:"uniqueIndex;not null" json:"symbol"`
	Name    string    `json:"name,omitempty"`
	AddedAt time.Time `json:"added_at"`
}
