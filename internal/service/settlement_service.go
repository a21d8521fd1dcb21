package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"
	"github.com/lashkaryadi/kuber-be/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService validates and executes sales against lots, and undoes
// them. Settlement and reversal are all-or-nothing units: the lot mutation,
// the sale record, the invoice, and the audit entry commit together or not at
// all. Settlement is NOT idempotent — retrying an ambiguous failure can
// double-sell.
type SettlementService interface {
	// Settle records a partial sale: quantities must be positive and within
	// the lot's available stock.
	Settle(ctx context.Context, tenantID uuid.UUID, req dto.SettleSaleRequest) (*dto.SaleResponse, error)
	// SettleFull sells the lot's entire remaining quantity, always leaving
	// the lot sold.
	SettleFull(ctx context.Context, tenantID uuid.UUID, req dto.SettleFullSaleRequest) (*dto.SaleResponse, error)
	// Reverse undoes a settled sale: restores stock, deletes the invoice
	// and the sale record.
	Reverse(ctx context.Context, tenantID, saleID uuid.UUID) error
	UpdateSale(ctx context.Context, tenantID, saleID uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type settlementService struct {
	lots       repository.LotRepository
	sales      repository.SaleRepository
	invoices   repository.InvoiceRepository
	audit      repository.AuditRepository
	invoiceSvc InvoiceService
	dispatcher *worker.Dispatcher
}

func NewSettlementService(
	lots repository.LotRepository,
	sales repository.SaleRepository,
	invoices repository.InvoiceRepository,
	audit repository.AuditRepository,
	invoiceSvc InvoiceService,
	dispatcher *worker.Dispatcher,
) SettlementService {
	return &settlementService{
		lots:       lots,
		sales:      sales,
		invoices:   invoices,
		audit:      audit,
		invoiceSvc: invoiceSvc,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// costBasis is the engine's one consistent profit rule: the lot's stored
// purchase price (per weight unit) times the weight sold.
func costBasis(lot *model.Lot, soldWeight decimal.Decimal) decimal.Decimal {
	return lot.PurchasePrice.Mul(soldWeight).Round(2)
}

func (s *settlementService) Settle(ctx context.Context, tenantID uuid.UUID, req dto.SettleSaleRequest) (*dto.SaleResponse, error) {
	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		return nil, apierror.Validation("invalid lot_id")
	}
	return s.settle(ctx, tenantID, lotID, req.SoldPieces, req.SoldWeight, req.Price, req.Currency, req.Buyer, req.SoldDate)
}

func (s *settlementService) SettleFull(ctx context.Context, tenantID uuid.UUID, req dto.SettleFullSaleRequest) (*dto.SaleResponse, error) {
	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		return nil, apierror.Validation("invalid lot_id")
	}

	// The full-sale path keeps the one-sale-per-lot rule: a lot with any
	// recorded sale, partial or full, cannot be sold whole. Reversing that
	// sale first makes the lot eligible again.
	if _, err := s.sales.FindByLotID(ctx, tenantID, lotID); err == nil {
		return nil, apierror.AlreadySold("a sale is already recorded for this lot")
	} else if apierror.KindOf(err) != apierror.KindNotFound {
		return nil, err
	}

	// Snapshot the remaining quantities; the atomic deduct re-checks them,
	// so a concurrent partial sale in between makes this request fail
	// rather than oversell.
	lot, err := s.lots.FindByID(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	if lot.Status == model.StatusSold {
		return nil, apierror.AlreadySold("this lot is already sold")
	}
	return s.settle(ctx, tenantID, lotID, lot.AvailablePieces, lot.AvailableWeight, req.Price, req.Currency, req.Buyer, req.SoldDate)
}

// settle is the shared settlement path. Ordering discipline: the lot deduct
// runs first inside the transaction, so a failure at any later step rolls the
// deduction back and a crash can never leave a sale recorded against stock
// that was not reduced.
func (s *settlementService) settle(
	ctx context.Context,
	tenantID, lotID uuid.UUID,
	pieces int, weight decimal.Decimal,
	price decimal.Decimal, currency string,
	buyer *string, soldDate time.Time,
) (*dto.SaleResponse, error) {
	lot, err := s.lots.FindByID(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	if lot.Status == model.StatusSold {
		return nil, apierror.AlreadySold("this lot is already sold")
	}
	if pieces > lot.AvailablePieces {
		return nil, apierror.Oversell("sold pieces exceed available stock")
	}
	if weight.GreaterThan(lot.AvailableWeight) {
		return nil, apierror.Oversell("sold weight exceeds available stock")
	}

	cost := costBasis(lot, weight)

	var (
		sale model.Sale
		inv  *model.Invoice
	)
	txErr := runTx(ctx, s.lots.DB(), func(tx *gorm.DB) error {
		// 1. Atomic guarded deduction — the authoritative oversell check,
		// recomputed against the latest stored values.
		updated, err := s.lots.Deduct(ctx, tx, tenantID, lotID, pieces, weight)
		if err != nil {
			return err
		}

		// 2. Sale record.
		sale = model.Sale{
			TenantID:   tenantID,
			LotID:      lotID,
			SoldPieces: pieces,
			SoldWeight: weight,
			Price:      price,
			TotalPrice: price,
			CostPrice:  cost,
			Profit:     price.Sub(cost),
			Currency:   currency,
			Buyer:      buyer,
			SoldDate:   soldDate,
		}
		if err := s.sales.Create(ctx, tx, &sale); err != nil {
			return err
		}

		// 3. Invoice — sequence failure aborts the whole settlement.
		updated.Category = lot.Category
		inv, err = s.invoiceSvc.CreateForSettlement(ctx, tx, &sale, updated)
		if err != nil {
			return err
		}

		// 4. Audit trail.
		meta, _ := json.Marshal(map[string]interface{}{
			"serial_number": lot.SerialNumber,
			"sold_pieces":   pieces,
			"sold_weight":   weight,
			"sale_price":    price,
			"currency":      currency,
			"buyer":         buyer,
			"sold_date":     soldDate,
			"invoice":       inv.InvoiceNumber,
		})
		entry := &model.AuditEntry{
			TenantID:   tenantID,
			Action:     model.AuditSellItem,
			EntityType: "lot",
			EntityID:   lotID,
			Meta:       meta,
		}
		if err := s.audit.Append(ctx, tx, entry); err != nil {
			return err
		}

		lot = updated
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Buyer notification is fire-and-forget: a failure here is logged by
	// the worker and never rolls back the settlement.
	if s.dispatcher != nil && buyer != nil && *buyer != "" {
		payload := worker.NotifyPayload{
			Buyer:         *buyer,
			InvoiceNumber: inv.InvoiceNumber,
			Currency:      currency,
			Amount:        inv.TotalAmount.String(),
		}
		if err := s.dispatcher.EnqueueNotify(ctx, payload); err != nil {
			log.Warn().Err(err).Str("invoice", inv.InvoiceNumber).Msg("failed to enqueue buyer notification")
		}
	}

	resp := saleToResponse(&sale, lot)
	resp.InvoiceID = inv.ID.String()
	resp.InvoiceNumber = inv.InvoiceNumber
	return resp, nil
}

func (s *settlementService) Reverse(ctx context.Context, tenantID, saleID uuid.UUID) error {
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return err
	}

	return runTx(ctx, s.lots.DB(), func(tx *gorm.DB) error {
		// Restore stock. A lot deleted after the sale must not block the
		// reversal of history — skip restoration with a warning.
		_, err := s.lots.Restore(ctx, tx, tenantID, sale.LotID, sale.SoldPieces, sale.SoldWeight)
		switch {
		case err == nil:
		case apierror.KindOf(err) == apierror.KindNotFound:
			log.Warn().
				Str("sale_id", saleID.String()).
				Str("lot_id", sale.LotID.String()).
				Msg("reversing sale against a deleted lot — stock restoration skipped")
		default:
			return err
		}

		if err := s.invoices.DeleteBySaleID(ctx, tx, tenantID, saleID); err != nil {
			return err
		}
		if err := s.sales.Delete(ctx, tx, tenantID, saleID); err != nil {
			return err
		}

		serial := ""
		if sale.Lot != nil {
			serial = sale.Lot.SerialNumber
		}
		meta, _ := json.Marshal(map[string]interface{}{
			"serial_number": serial,
			"sold_pieces":   sale.SoldPieces,
			"sold_weight":   sale.SoldWeight,
			"sale_price":    sale.Price,
		})
		return s.audit.Append(ctx, tx, &model.AuditEntry{
			TenantID:   tenantID,
			Action:     model.AuditReverseSale,
			EntityType: "sale",
			EntityID:   saleID,
			Meta:       meta,
		})
	})
}

func (s *settlementService) UpdateSale(ctx context.Context, tenantID, saleID uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	before, _ := json.Marshal(sale)

	sale.Price = req.Price
	sale.TotalPrice = req.Price
	// Profit tracks the edited price against the recorded cost basis.
	sale.Profit = req.Price.Sub(sale.CostPrice)
	sale.Buyer = req.Buyer
	sale.SoldDate = req.SoldDate

	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.Update(ctx, tx, sale); err != nil {
			return err
		}

		// Propagate into the invoice in whichever layout it has.
		inv, err := s.invoices.FindBySaleID(ctx, tenantID, saleID)
		switch {
		case err == nil:
			totals := ComposeTotals(req.Price, inv.TaxRate)
			inv.Buyer = req.Buyer
			inv.Subtotal = totals.Subtotal
			inv.CGSTAmount = totals.CGSTAmount
			inv.SGSTAmount = totals.SGSTAmount
			inv.TaxAmount = totals.TaxAmount
			inv.TotalAmount = totals.TotalAmount
			if err := s.invoices.UpdateForSale(ctx, tx, tenantID, saleID, inv); err != nil {
				return err
			}
		case apierror.KindOf(err) == apierror.KindNotFound:
			// No invoice yet — the lazy read path will compose one from
			// the updated sale.
		default:
			return err
		}

		after, _ := json.Marshal(sale)
		meta, _ := json.Marshal(map[string]json.RawMessage{"before": before, "after": after})
		return s.audit.Append(ctx, tx, &model.AuditEntry{
			TenantID:   tenantID,
			Action:     model.AuditUpdateSale,
			EntityType: "sale",
			EntityID:   saleID,
			Meta:       meta,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return saleToResponse(sale, sale.Lot), nil
}

func (s *settlementService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	resp := saleToResponse(sale, sale.Lot)
	// Legacy sales may not have an invoice yet; absence is not an error here.
	if inv, err := s.invoices.FindBySaleID(ctx, tenantID, saleID); err == nil {
		resp.InvoiceID = inv.ID.String()
		resp.InvoiceNumber = inv.InvoiceNumber
	}
	return resp, nil
}

func (s *settlementService) ListSales(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	sales, total, err := s.sales.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.SaleListResponse{
		Data:  make([]dto.SaleResponse, 0, len(sales)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range sales {
		resp.Data = append(resp.Data, *saleToResponse(&sales[i], sales[i].Lot))
	}
	return resp, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func saleToResponse(sale *model.Sale, lot *model.Lot) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:         sale.ID.String(),
		LotID:      sale.LotID.String(),
		SoldPieces: sale.SoldPieces,
		SoldWeight: sale.SoldWeight,
		Price:      sale.Price,
		TotalPrice: sale.TotalPrice,
		CostPrice:  sale.CostPrice,
		Profit:     sale.Profit,
		Currency:   sale.Currency,
		Buyer:      sale.Buyer,
		SoldDate:   sale.SoldDate.Format("2006-01-02"),
		CreatedAt:  sale.CreatedAt.Format(time.RFC3339),
	}
	if lot != nil {
		resp.SerialNumber = lot.SerialNumber
		resp.LotStatus = string(lot.Status)
		resp.LotAvailablePieces = lot.AvailablePieces
		resp.LotAvailableWeight = lot.AvailableWeight
		if lot.Category != nil {
			resp.CategoryName = lot.Category.Name
		}
	}
	return resp
}
