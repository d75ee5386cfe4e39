package engine

import (
	"fmt"
	"time"
)

// TradeSummary is the user-facing confirmation of one fill. RealizedPnL is
// derived for display on closing trades only and is not a ledger entry.
type TradeSummary struct {
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	TotalValue  float64   `json:"total_value"`
	RealizedPnL *float64  `json:"realized_pnl,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ExecResult is the uniform outcome of every execute call. Validation and
// backend failures set Error; policy skips set Skipped+Reason and are
// expected steady-state behavior, not failures to retry.
type ExecResult struct {
	Success bool          `json:"success"`
	Trade   *TradeSummary `json:"trade,omitempty"`
	Error   string        `json:"error,omitempty"`
	Skipped bool          `json:"skipped,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

func errResult(format string, args ...interface{}) *ExecResult {
	return &ExecResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

func skipResult(format string, args ...interface{}) *ExecResult {
	return &ExecResult{Success: false, Skipped: true, Reason: fmt.Sprintf(format, args...)}
}
