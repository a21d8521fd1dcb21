package service

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// LotService defines the business logic contract for inventory lots.
type LotService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req dto.CreateLotRequest) (*dto.LotResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*dto.LotResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.LotFilter) (*dto.LotListResponse, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req dto.UpdateLotRequest) (*dto.LotResponse, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// Import parses an XLSX stream and creates one lot per data row,
	// reporting per-row outcomes instead of failing the whole batch.
	Import(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*dto.ImportResponse, error)
}

type lotService struct {
	lots       repository.LotRepository
	categories repository.CategoryRepository
}

func NewLotService(lots repository.LotRepository, categories repository.CategoryRepository) LotService {
	return &lotService{lots: lots, categories: categories}
}

func (s *lotService) Create(ctx context.Context, tenantID uuid.UUID, req dto.CreateLotRequest) (*dto.LotResponse, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apierror.Validation("invalid category_id")
	}
	cat, err := s.categories.FindByID(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}

	lot := &model.Lot{
		TenantID:        tenantID,
		SerialNumber:    strings.TrimSpace(req.SerialNumber),
		CategoryID:      &categoryID,
		TotalPieces:     req.Pieces,
		AvailablePieces: req.Pieces,
		TotalWeight:     req.Weight,
		AvailableWeight: req.Weight,
		WeightUnit:      req.WeightUnit,
		PurchasePrice:   req.PurchasePrice,
		PurchaseCode:    req.PurchaseCode,
		SaleCode:        req.SaleCode,
		Dimensions:      req.Dimensions,
		Certification:   req.Certification,
		Location:        req.Location,
		Description:     req.Description,
		Status:          model.StatusPending,
	}
	if err := s.lots.Create(ctx, lot); err != nil {
		return nil, err
	}
	lot.Category = cat
	return lotToResponse(lot), nil
}

func (s *lotService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*dto.LotResponse, error) {
	lot, err := s.lots.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return lotToResponse(lot), nil
}

func (s *lotService) List(ctx context.Context, tenantID uuid.UUID, filter dto.LotFilter) (*dto.LotListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	// HTTP callers are already capped by the filter's validator tags; this
	// guards direct callers.
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	lots, total, err := s.lots.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.LotListResponse{
		Data:  make([]dto.LotResponse, 0, len(lots)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range lots {
		resp.Data = append(resp.Data, *lotToResponse(&lots[i]))
	}
	return resp, nil
}

// Update edits lot fields in two disjoint writes so neither can clobber a
// concurrent settlement: descriptive fields go through an explicit column
// list that never touches the quantity columns, and quantity corrections go
// through the repository's guarded statement, which recomputes available from
// the live sold amount.
func (s *lotService) Update(ctx context.Context, tenantID, id uuid.UUID, req dto.UpdateLotRequest) (*dto.LotResponse, error) {
	fields := map[string]interface{}{}
	if req.SerialNumber != nil {
		fields["serial_number"] = strings.TrimSpace(*req.SerialNumber)
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, apierror.Validation("invalid category_id")
		}
		if _, err := s.categories.FindByID(ctx, tenantID, categoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = categoryID
	}
	if req.WeightUnit != nil {
		fields["weight_unit"] = *req.WeightUnit
	}
	if req.PurchasePrice != nil {
		fields["purchase_price"] = *req.PurchasePrice
	}
	if req.PurchaseCode != nil {
		fields["purchase_code"] = *req.PurchaseCode
	}
	if req.SaleCode != nil {
		fields["sale_code"] = *req.SaleCode
	}
	if req.Dimensions != nil {
		fields["dimensions"] = req.Dimensions
	}
	if req.Certification != nil {
		fields["certification"] = req.Certification
	}
	if req.Location != nil {
		fields["location"] = req.Location
	}
	if req.Description != nil {
		fields["description"] = req.Description
	}
	if len(fields) > 0 {
		if err := s.lots.UpdateFields(ctx, tenantID, id, fields); err != nil {
			return nil, err
		}
	}

	if req.TotalPieces != nil || req.TotalWeight != nil {
		if _, err := s.lots.Correct(ctx, tenantID, id, req.TotalPieces, req.TotalWeight); err != nil {
			return nil, err
		}
	}

	lot, err := s.lots.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return lotToResponse(lot), nil
}

func (s *lotService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.lots.SoftDelete(ctx, tenantID, id)
}

// Import column layout (first sheet, header row skipped):
//
//	A serial | B category | C pieces | D weight | E unit | F purchase code |
//	G sale code | H purchase price
//
// Unknown categories are created on the fly. Row failures are collected, not
// fatal: a batch with one bad row still imports the rest.
func (s *lotService) Import(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*dto.ImportResponse, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierror.Validation("file is not a valid XLSX workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apierror.Validation("could not read the first worksheet")
	}
	if len(rows) < 2 {
		return nil, apierror.Validation("the worksheet has no data rows")
	}

	resp := &dto.ImportResponse{Results: make([]dto.ImportRowResult, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		rowNum := i + 2
		result := s.importRow(ctx, tenantID, rowNum, row)
		if result.Error != "" {
			resp.Failed++
		} else {
			resp.Created++
		}
		resp.Results = append(resp.Results, result)
	}

	log.Info().
		Str("tenant_id", tenantID.String()).
		Int("created", resp.Created).
		Int("failed", resp.Failed).
		Msg("lot import finished")
	return resp, nil
}

func (s *lotService) importRow(ctx context.Context, tenantID uuid.UUID, rowNum int, row []string) dto.ImportRowResult {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	result := dto.ImportRowResult{Row: rowNum, Serial: cell(0)}

	fail := func(msg string) dto.ImportRowResult {
		result.Error = msg
		return result
	}

	serial := cell(0)
	if serial == "" {
		return fail("serial is required")
	}
	catName := cell(1)
	if catName == "" {
		return fail("category is required")
	}
	pieces, err := strconv.Atoi(cell(2))
	if err != nil || pieces < 1 {
		return fail("pieces must be a positive integer")
	}
	weight, err := decimal.NewFromString(cell(3))
	if err != nil || weight.LessThanOrEqual(decimal.Zero) {
		return fail("weight must be a positive number")
	}
	unit := cell(4)
	if unit == "" {
		unit = "carat"
	}
	if unit != "carat" && unit != "gram" {
		return fail("unit must be carat or gram")
	}
	purchaseCode := cell(5)
	if purchaseCode == "" {
		return fail("purchase code is required")
	}
	saleCode := cell(6)
	if saleCode == "" {
		return fail("sale code is required")
	}
	purchasePrice := decimal.Zero
	if raw := cell(7); raw != "" {
		purchasePrice, err = decimal.NewFromString(raw)
		if err != nil || purchasePrice.IsNegative() {
			return fail("purchase price must be a non-negative number")
		}
	}

	cat, err := s.findOrCreateCategory(ctx, tenantID, catName)
	if err != nil {
		return fail("category: " + err.Error())
	}

	lot := &model.Lot{
		TenantID:        tenantID,
		SerialNumber:    serial,
		CategoryID:      &cat.ID,
		TotalPieces:     pieces,
		AvailablePieces: pieces,
		TotalWeight:     weight,
		AvailableWeight: weight,
		WeightUnit:      unit,
		PurchasePrice:   purchasePrice,
		PurchaseCode:    purchaseCode,
		SaleCode:        saleCode,
		Status:          model.StatusPending,
	}
	if err := s.lots.Create(ctx, lot); err != nil {
		return fail(err.Error())
	}

	result.ID = lot.ID.String()
	return result
}

func (s *lotService) findOrCreateCategory(ctx context.Context, tenantID uuid.UUID, name string) (*model.Category, error) {
	cat, err := s.categories.FindByName(ctx, tenantID, name)
	if err == nil {
		return cat, nil
	}
	if apierror.KindOf(err) != apierror.KindNotFound {
		return nil, err
	}

	cat = &model.Category{TenantID: tenantID, Name: name}
	if err := s.categories.Create(ctx, cat); err != nil {
		// A concurrent import row may have created it between the lookup
		// and the insert.
		if existing, ferr := s.categories.FindByName(ctx, tenantID, name); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return cat, nil
}

func lotToResponse(l *model.Lot) *dto.LotResponse {
	resp := &dto.LotResponse{
		ID:              l.ID.String(),
		SerialNumber:    l.SerialNumber,
		TotalPieces:     l.TotalPieces,
		AvailablePieces: l.AvailablePieces,
		TotalWeight:     l.TotalWeight,
		AvailableWeight: l.AvailableWeight,
		WeightUnit:      l.WeightUnit,
		PurchasePrice:   l.PurchasePrice,
		PurchaseCode:    l.PurchaseCode,
		SaleCode:        l.SaleCode,
		Dimensions:      l.Dimensions,
		Certification:   l.Certification,
		Location:        l.Location,
		Description:     l.Description,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
	}
	if l.CategoryID != nil {
		id := l.CategoryID.String()
		resp.CategoryID = &id
	}
	if l.Category != nil {
		resp.CategoryName = l.Category.Name
	}
	return resp
}
