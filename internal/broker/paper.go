package broker

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"stock-trade-bot-go/internal/ledger"
	"stock-trade-bot-go/internal/models"
)

// PaperBackend simulates execution against the local ledger. All balance
// and position state is authoritative here.
type PaperBackend struct {
	store     *ledger.Store
	accountID uint
}

var _ Backend = (*PaperBackend)(nil)

// NewPaperBackend creates a paper backend for one account.
func NewPaperBackend(store *ledger.Store, accountID uint) *PaperBackend {
	return &PaperBackend{store: store, accountID: accountID}
}

func (b *PaperBackend) Name() string {
	return models.ProviderPaper
}

// GetBalance returns the ledger cash balance.
func (b *PaperBackend) GetBalance(ctx context.Context) (float64, error) {
	account, err := b.store.GetAccount(ctx, b.accountID)
	if err != nil {
		return 0, err
	}
	return account.CashBalance, nil
}

// GetAccountSnapshot recomputes equity from the ledger: cash plus the
// signed market value of every open position. Buying power is the 2x
// gross-leverage ceiling (cash + equity).
func (b *PaperBackend) GetAccountSnapshot(ctx context.Context) (*AccountSnapshot, error) {
	account, err := b.store.GetAccount(ctx, b.accountID)
	if err != nil {
		return nil, err
	}
	positions, err := b.store.OpenPositions(ctx, b.accountID)
	if err != nil {
		return nil, err
	}

	marketValue := 0.0
	for i := range positions {
		marketValue += positions[i].MarketValue()
	}

	equity := account.CashBalance + marketValue
	return &AccountSnapshot{
		Cash:        account.CashBalance,
		Equity:      equity,
		BuyingPower: account.CashBalance + equity,
	}, nil
}

// GetPositions maps the ledger's open positions to the backend shape.
func (b *PaperBackend) GetPositions(ctx context.Context) ([]PositionInfo, error) {
	positions, err := b.store.OpenPositions(ctx, b.accountID)
	if err != nil {
		return nil, err
	}

	infos := make([]PositionInfo, 0, len(positions))
	for i := range positions {
		p := &positions[i]
		costBasis := p.Quantity * p.AvgCost
		unrealized := p.ComputeUnrealizedPnL()
		unrealizedPct := 0.0
		if p.AvgCost > 0 {
			unrealizedPct = unrealized / math.Abs(costBasis) * 100
		}
		infos = append(infos, PositionInfo{
			Symbol:           p.Symbol,
			Quantity:         p.Quantity,
			AvgEntryPrice:    p.AvgCost,
			CurrentPrice:     p.CurrentPrice,
			MarketValue:      p.MarketValue(),
			CostBasis:        costBasis,
			UnrealizedPnL:    unrealized,
			UnrealizedPnLPct: unrealizedPct,
		})
	}
	return infos, nil
}

// SubmitOrder applies the simulated fill's cash delta: buys debit the
// notional, sells credit the proceeds. It runs inside the caller's
// transaction (ledger.WithTx) so the cash mutation commits atomically
// with the position and trade rows.
func (b *PaperBackend) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	if req.Quantity <= 0 || req.Price <= 0 {
		return nil, fmt.Errorf("invalid paper order: qty=%.4f price=%.4f", req.Quantity, req.Price)
	}

	account, err := b.store.GetAccount(ctx, b.accountID)
	if err != nil {
		return nil, err
	}

	notional := req.Quantity * req.Price
	switch req.Side {
	case OrderSideBuy:
		account.CashBalance -= notional
	case OrderSideSell:
		account.CashBalance += notional
	default:
		return nil, fmt.Errorf("unknown order side %q", req.Side)
	}

	if err := b.store.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	return &OrderAck{OrderID: uuid.NewString()}, nil
}
