package service

import (
	"context"
	"time"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
)

// StockService derives stock views from the ledger
type StockService struct {
	stockRepo *repository.StockRepository
	itemRepo  *repository.ItemRepository
}

// NewStockService creates a new stock service
func NewStockService(stockRepo *repository.StockRepository, itemRepo *repository.ItemRepository) *StockService {
	return &StockService{
		stockRepo: stockRepo,
		itemRepo:  itemRepo,
	}
}

// Totals projects current stock per item
func (s *StockService) Totals(ctx context.Context, activeOnly bool) ([]*repository.ItemStock, error) {
	return s.stockRepo.ItemTotals(ctx, activeOnly)
}

// TotalsAsOf projects stock per item at a point in time
func (s *StockService) TotalsAsOf(ctx context.Context, at time.Time) ([]*repository.ItemStock, error) {
	return s.stockRepo.ItemTotalsAsOf(ctx, at)
}

// ItemStock projects the stock of one item with its per-lot breakdown
func (s *StockService) ItemStock(ctx context.Context, itemID int64) (*repository.ItemStock, []*repository.LotStock, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	total, err := s.stockRepo.ItemTotal(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	lots, err := s.stockRepo.LotBalances(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	stock := &repository.ItemStock{
		ItemID:   item.ID,
		Name:     item.Name,
		Category: item.Category,
		Unit:     item.Unit,
		MinAlert: item.MinAlert,
		Total:    total,
	}

	return stock, lots, nil
}

// LowStock projects active items below their threshold
func (s *StockService) LowStock(ctx context.Context) ([]*repository.ItemStock, error) {
	return s.stockRepo.LowStock(ctx)
}
