package models

import "time"

// Account is one trading ledger: a cash balance plus its positions and
// trade history. Accounts are created at registration and never deleted;
// a reset purges positions/trades and restores the initial balance.
type Account struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string  `gorm:"uniqueIndex;not null" json:"name"`
	CashBalance float64 `gorm:"not null" json:"cash_balance"`
	InitialCash float64 `gorm:"not null" json:"initial_cash"`
}
