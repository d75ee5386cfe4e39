package broker

import (
	"context"
	"fmt"

	"stock-trade-bot-go/internal/alpaca"
	"stock-trade-bot-go/internal/models"
)

// AlpacaBackend routes execution to the brokerage. Cash and equity are
// authoritative from the brokerage snapshot; local Position/Trade rows are
// still written by the engine for history and fast UI reads.
type AlpacaBackend struct {
	client alpaca.ClientInterface
}

var _ Backend = (*AlpacaBackend)(nil)

// NewAlpacaBackend wraps an Alpaca REST client as an execution backend.
func NewAlpacaBackend(client alpaca.ClientInterface) *AlpacaBackend {
	return &AlpacaBackend{client: client}
}

func (b *AlpacaBackend) Name() string {
	return models.ProviderAlpaca
}

func (b *AlpacaBackend) GetBalance(ctx context.Context) (float64, error) {
	account, err := b.client.GetAccount(ctx)
	if err != nil {
		return 0, fmt.Errorf("Alpaca Error: %v", err)
	}
	return account.Cash, nil
}

func (b *AlpacaBackend) GetAccountSnapshot(ctx context.Context) (*AccountSnapshot, error) {
	account, err := b.client.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("Alpaca Error: %v", err)
	}
	return &AccountSnapshot{
		Cash:        account.Cash,
		Equity:      account.Equity,
		BuyingPower: account.BuyingPower,
	}, nil
}

func (b *AlpacaBackend) GetPositions(ctx context.Context) ([]PositionInfo, error) {
	positions, err := b.client.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("Alpaca Error: %v", err)
	}

	infos := make([]PositionInfo, 0, len(positions))
	for _, p := range positions {
		infos = append(infos, PositionInfo{
			Symbol:           p.Symbol,
			Quantity:         p.Quantity,
			AvgEntryPrice:    p.AvgEntryPrice,
			CurrentPrice:     p.CurrentPrice,
			MarketValue:      p.MarketValue,
			CostBasis:        p.CostBasis,
			UnrealizedPnL:    p.UnrealizedPnL,
			UnrealizedPnLPct: p.UnrealizedPnLPct,
		})
	}
	return infos, nil
}

// SubmitOrder forwards a market day order. Margin and share-availability
// checks are the brokerage's; its rejections surface here as errors and
// never touch local state.
func (b *AlpacaBackend) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	order, err := b.client.SubmitOrder(ctx, alpaca.OrderRequest{
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Side:     req.Side,
	})
	if err != nil {
		return nil, fmt.Errorf("Alpaca Error: %v", err)
	}
	return &OrderAck{OrderID: order.ID}, nil
}
