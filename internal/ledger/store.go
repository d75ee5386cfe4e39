package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stock-trade-bot-go/internal/models"
)

// Store owns all ledger reads and writes. Methods accept a context so that
// callers holding a transaction (see WithTx) get atomic multi-row updates.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an open database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for transaction scoping.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Accounts

// CreateAccount registers a new account with the given starting balance.
func (s *Store) CreateAccount(ctx context.Context, name string, initialCash float64) (*models.Account, error) {
	account := &models.Account{
		Name:        name,
		CashBalance: initialCash,
		InitialCash: initialCash,
	}
	if err := s.conn(ctx).Create(account).Error; err != nil {
		return nil, fmt.Errorf("create account %q: %w", name, err)
	}
	return account, nil
}

// GetAccount loads one account by ID.
func (s *Store) GetAccount(ctx context.Context, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := s.conn(ctx).First(&account, accountID).Error; err != nil {
		return nil, fmt.Errorf("get account %d: %w", accountID, err)
	}
	return &account, nil
}

// ListAccounts returns all accounts ordered by ID.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.conn(ctx).Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// SaveAccount persists a mutated account (cash balance changes).
func (s *Store) SaveAccount(ctx context.Context, account *models.Account) error {
	return s.conn(ctx).Save(account).Error
}

// ResetAccount purges positions and trades and restores the initial cash
// balance. The account row itself survives.
func (s *Store) ResetAccount(ctx context.Context, accountID uint) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, accountID).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&models.Position{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&models.Trade{}).Error; err != nil {
			return err
		}
		account.CashBalance = account.InitialCash
		return tx.Save(&account).Error
	})
}

// Positions

// GetPosition returns the position row for (account, symbol), or nil when
// the symbol has never traded.
func (s *Store) GetPosition(ctx context.Context, accountID uint, symbol string) (*models.Position, error) {
	var position models.Position
	err := s.conn(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbol, err)
	}
	return &position, nil
}

// OpenPositions returns positions with a quantity that has not been snapped
// to zero. Zero rows persist but never appear here.
func (s *Store) OpenPositions(ctx context.Context, accountID uint) ([]models.Position, error) {
	var positions []models.Position
	err := s.conn(ctx).
		Where("account_id = ? AND ABS(quantity) >= ?", accountID, models.QuantityEpsilon).
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("open positions: %w", err)
	}
	return positions, nil
}

// SavePosition creates or updates a position row.
func (s *Store) SavePosition(ctx context.Context, position *models.Position) error {
	return s.conn(ctx).Save(position).Error
}

// Trades

// SaveTrade appends one immutable trade record.
func (s *Store) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return s.conn(ctx).Create(trade).Error
}

// RecentTrades returns the newest trades for an account, newest first.
func (s *Store) RecentTrades(ctx context.Context, accountID uint, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.conn(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	return trades, nil
}

// CountTrades returns the total number of trades recorded for an account.
func (s *Store) CountTrades(ctx context.Context, accountID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Trade{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

// Signals

// SaveSignal logs one AI signal.
func (s *Store) SaveSignal(ctx context.Context, signal *models.Signal) error {
	return s.conn(ctx).Create(signal).Error
}

// RecentSignals returns the newest logged signals, newest first.
func (s *Store) RecentSignals(ctx context.Context, accountID uint, limit int) ([]models.Signal, error) {
	var signals []models.Signal
	err := s.conn(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	return signals, nil
}

// Watchlist

// Watchlist returns all watched symbols.
func (s *Store) Watchlist(ctx context.Context) ([]models.WatchedStock, error) {
	var watched []models.WatchedStock
	if err := s.conn(ctx).Order("symbol").Find(&watched).Error; err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	return watched, nil
}

// AddWatchedStock inserts a symbol into the watchlist if absent.
func (s *Store) AddWatchedStock(ctx context.Context, symbol, name string) error {
	watched := models.WatchedStock{Symbol: symbol}
	return s.conn(ctx).
		Where(models.WatchedStock{Symbol: symbol}).
		Attrs(models.WatchedStock{Name: name, AddedAt: time.Now().UTC()}).
		FirstOrCreate(&watched).Error
}

// RemoveWatchedStock drops a symbol from the watchlist.
func (s *Store) RemoveWatchedStock(ctx context.Context, symbol string) error {
	return s.conn(ctx).Where("symbol = ?", symbol).Delete(&models.WatchedStock{}).Error
}

// Settings

// GetSetting returns the per-account value for key, or def when unset.
func (s *Store) GetSetting(ctx context.Context, accountID uint, key, def string) (string, error) {
	var setting models.Setting
	err := s.conn(ctx).
		Where("account_id = ? AND key = ?", accountID, key).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("get setting %q: %w", key, err)
	}
	return setting.Value, nil
}

// SetSetting upserts one per-account setting.
func (s *Store) SetSetting(ctx context.Context, accountID uint, key, value string) error {
	var setting models.Setting
	err := s.conn(ctx).
		Where("account_id = ? AND key = ?", accountID, key).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.Setting{AccountID: accountID, Key: key, Value: value}
		return s.conn(ctx).Create(&setting).Error
	}
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	setting.Value = value
	return s.conn(ctx).Save(&setting).Error
}
