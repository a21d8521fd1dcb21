package service

import (
	"context"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardService aggregates read-only inventory and sales figures.
type DashboardService interface {
	Summary(ctx context.Context, tenantID uuid.UUID) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	lots  repository.LotRepository
	sales repository.SaleRepository
}

func NewDashboardService(lots repository.LotRepository, sales repository.SaleRepository) DashboardService {
	return &dashboardService{lots: lots, sales: sales}
}

const recentSalesLimit = 5

func (s *dashboardService) Summary(ctx context.Context, tenantID uuid.UUID) (*dto.DashboardResponse, error) {
	counts, err := s.lots.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	soldCount, err := s.sales.Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	inStock, err := s.lots.ListInStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	recent, err := s.sales.Recent(ctx, tenantID, recentSalesLimit)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		InStockLots:   counts[model.StatusInStock],
		PartiallySold: counts[model.StatusPartiallySold],
		SoldLots:      counts[model.StatusSold],
		PendingLots:   counts[model.StatusPending],
		SoldCount:     soldCount,
		InStockValue:  stockValue(inStock),
		RecentSales:   make([]dto.SaleResponse, 0, len(recent)),
	}
	for _, n := range counts {
		resp.TotalLots += n
	}
	for i := range recent {
		resp.RecentSales = append(resp.RecentSales, *saleToResponse(&recent[i], recent[i].Lot))
	}
	return resp, nil
}

// stockValue sums sale code times available weight over the lots still holding
// stock. Sale codes are merchant ciphers and not always numeric; a single
// non-numeric code makes the total meaningless, so the whole figure degrades
// to "-" rather than a partial sum.
func stockValue(lots []model.Lot) string {
	total := decimal.Zero
	for i := range lots {
		rate, err := decimal.NewFromString(lots[i].SaleCode)
		if err != nil {
			return "-"
		}
		total = total.Add(rate.Mul(lots[i].AvailableWeight))
	}
	return total.Round(2).String()
}
