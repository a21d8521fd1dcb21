package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// assertDec compares decimals by value, ignoring exponent representation
// ("30" vs "30.000").
func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "want %s, got %s", want, got)
}

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubLotRepo is an in-memory LotRepository. Deduct and Restore hold a mutex
// around the guard check and the mutation, matching the atomicity of the real
// single-statement implementations.
type stubLotRepo struct {
	mu   sync.Mutex
	lots map[uuid.UUID]*model.Lot
}

func newStubLotRepo() *stubLotRepo {
	return &stubLotRepo{lots: make(map[uuid.UUID]*model.Lot)}
}

func (r *stubLotRepo) Create(_ context.Context, l *model.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	for _, other := range r.lots {
		if other.TenantID == l.TenantID && other.SerialNumber == l.SerialNumber && !other.IsDeleted {
			return apierror.DuplicateSerial("serial number already exists for this tenant")
		}
	}
	r.lots[l.ID] = l
	return nil
}

func (r *stubLotRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lots[id]
	if !ok || l.TenantID != tenantID || l.IsDeleted {
		return nil, apierror.NotFound("lot not found")
	}
	cp := *l
	return &cp, nil
}

func (r *stubLotRepo) FindBySerial(_ context.Context, tenantID uuid.UUID, serial string) (*model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lots {
		if l.TenantID == tenantID && l.SerialNumber == serial && !l.IsDeleted {
			cp := *l
			return &cp, nil
		}
	}
	return nil, apierror.NotFound("lot not found")
}

func (r *stubLotRepo) List(_ context.Context, tenantID uuid.UUID, _ dto.LotFilter) ([]model.Lot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Lot
	for _, l := range r.lots {
		if l.TenantID == tenantID && !l.IsDeleted {
			out = append(out, *l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubLotRepo) UpdateFields(_ context.Context, tenantID, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lots[id]
	if !ok || l.TenantID != tenantID || l.IsDeleted {
		return apierror.NotFound("lot not found")
	}
	for col, v := range fields {
		switch col {
		case "serial_number":
			serial := v.(string)
			for _, other := range r.lots {
				if other.ID != id && other.TenantID == tenantID && other.SerialNumber == serial && !other.IsDeleted {
					return apierror.DuplicateSerial("serial number already exists for this tenant")
				}
			}
			l.SerialNumber = serial
		case "category_id":
			catID := v.(uuid.UUID)
			l.CategoryID = &catID
		case "weight_unit":
			l.WeightUnit = v.(string)
		case "purchase_price":
			l.PurchasePrice = v.(decimal.Decimal)
		case "purchase_code":
			l.PurchaseCode = v.(string)
		case "sale_code":
			l.SaleCode = v.(string)
		case "dimensions":
			l.Dimensions = v.(*string)
		case "certification":
			l.Certification = v.(*string)
		case "location":
			l.Location = v.(*string)
		case "description":
			l.Description = v.(*string)
		default:
			return fmt.Errorf("unexpected column %q", col)
		}
	}
	return nil
}

// Correct mirrors the real guarded statement: the sold amount is taken from
// the live row under the same lock Deduct holds.
func (r *stubLotRepo) Correct(_ context.Context, tenantID, id uuid.UUID, totalPieces *int, totalWeight *decimal.Decimal) (*model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lots[id]
	if !ok || l.TenantID != tenantID || l.IsDeleted {
		return nil, apierror.NotFound("lot not found")
	}
	soldPieces := l.TotalPieces - l.AvailablePieces
	soldWeight := l.TotalWeight.Sub(l.AvailableWeight)
	if totalPieces != nil && *totalPieces < soldPieces {
		return nil, apierror.Validation(
			fmt.Sprintf("total_pieces cannot drop below the %d pieces already sold", soldPieces))
	}
	if totalWeight != nil && totalWeight.LessThan(soldWeight) {
		return nil, apierror.Validation(
			fmt.Sprintf("total_weight cannot drop below the %s already sold", soldWeight))
	}
	if totalPieces != nil {
		l.TotalPieces = *totalPieces
		l.AvailablePieces = *totalPieces - soldPieces
	}
	if totalWeight != nil {
		l.TotalWeight = *totalWeight
		l.AvailableWeight = totalWeight.Sub(soldWeight)
	}
	l.RecomputeStatus()
	cp := *l
	return &cp, nil
}

func (r *stubLotRepo) SoftDelete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lots[id]
	if !ok || l.TenantID != tenantID || l.IsDeleted {
		return apierror.NotFound("lot not found")
	}
	l.IsDeleted = true
	return nil
}

func (r *stubLotRepo) Deduct(_ context.Context, _ *gorm.DB, tenantID, id uuid.UUID, pieces int, weight decimal.Decimal) (*model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lots[id]
	if !ok || l.TenantID != tenantID || l.IsDeleted {
		return nil, apierror.NotFound("lot not found")
	}
	if pieces > l.AvailablePieces || weight.GreaterThan(l.AvailableWeight) {
		return nil, apierror.InsufficientStock("requested quantity exceeds available stock")
	}
	l.AvailablePieces -= pieces
	l.AvailableWeight = l.AvailableWeight.Sub(weight)
	l.RecomputeStatus()
	cp := *l
	return &cp, nil
}

func (r *stubLotRepo) Restore(_ context.Context, _ *gorm.DB, tenantID, id uuid.UUID, pieces int, weight decimal.Decimal) (*model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lots[id]
	if !ok || l.TenantID != tenantID || l.IsDeleted {
		return nil, apierror.NotFound("lot not found")
	}
	if l.AvailablePieces+pieces > l.TotalPieces || l.AvailableWeight.Add(weight).GreaterThan(l.TotalWeight) {
		return nil, apierror.Integrity("restore would exceed the lot's total quantities")
	}
	l.AvailablePieces += pieces
	l.AvailableWeight = l.AvailableWeight.Add(weight)
	l.RecomputeStatus()
	cp := *l
	return &cp, nil
}

func (r *stubLotRepo) CountByStatus(_ context.Context, tenantID uuid.UUID) (map[model.LotStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[model.LotStatus]int64)
	for _, l := range r.lots {
		if l.TenantID == tenantID && !l.IsDeleted {
			counts[l.Status]++
		}
	}
	return counts, nil
}

func (r *stubLotRepo) ListInStock(_ context.Context, tenantID uuid.UUID) ([]model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Lot
	for _, l := range r.lots {
		if l.TenantID == tenantID && !l.IsDeleted && l.Status != model.StatusSold {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubLotRepo) DB() *gorm.DB { return nil }

var _ repository.LotRepository = (*stubLotRepo)(nil)

// stubSaleRepo is an in-memory SaleRepository.
type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
	lots  *stubLotRepo
}

func newStubSaleRepo(lots *stubLotRepo) *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale), lots: lots}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	s, ok := r.sales[id]
	r.mu.Unlock()
	if !ok || s.TenantID != tenantID {
		return nil, apierror.NotFound("sale not found")
	}
	cp := *s
	if lot, err := r.lots.FindByID(ctx, tenantID, s.LotID); err == nil {
		cp.Lot = lot
	}
	return &cp, nil
}

func (r *stubSaleRepo) FindByLotID(_ context.Context, tenantID, lotID uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.LotID == lotID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apierror.NotFound("sale not found")
}

func (r *stubSaleRepo) List(_ context.Context, tenantID uuid.UUID, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	sales, err := r.ListAll(context.Background(), tenantID)
	return sales, int64(len(sales)), err
}

func (r *stubSaleRepo) ListAll(_ context.Context, tenantID uuid.UUID) ([]model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) Update(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.Lot = nil
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) Delete(_ context.Context, _ *gorm.DB, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok || s.TenantID != tenantID {
		return apierror.NotFound("sale not found")
	}
	delete(r.sales, id)
	return nil
}

func (r *stubSaleRepo) Count(_ context.Context, tenantID uuid.UUID) (int64, error) {
	sales, _ := r.ListAll(context.Background(), tenantID)
	return int64(len(sales)), nil
}

func (r *stubSaleRepo) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.Sale, error) {
	sales, _ := r.ListAll(ctx, tenantID)
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// stubInvoiceRepo stores invoices and enforces number uniqueness per tenant.
type stubInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*model.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *stubInvoiceRepo) Create(_ context.Context, _ *gorm.DB, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.SaleID != nil {
		if existing := r.findBySale(inv.TenantID, *inv.SaleID); existing != nil {
			return repository.ErrSaleInvoiceExists
		}
	}
	for _, other := range r.invoices {
		if other.TenantID == inv.TenantID && other.InvoiceNumber == inv.InvoiceNumber {
			return apierror.Integrity("invoice number already in use")
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

func (r *stubInvoiceRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, apierror.NotFound("invoice not found")
	}
	cp := *inv
	return &cp, nil
}

func (r *stubInvoiceRepo) findBySale(tenantID, saleID uuid.UUID) *model.Invoice {
	for _, inv := range r.invoices {
		if inv.TenantID != tenantID {
			continue
		}
		if inv.SaleID != nil && *inv.SaleID == saleID {
			return inv
		}
		for _, item := range inv.Items {
			if item.SaleID == saleID {
				return inv
			}
		}
	}
	return nil
}

func (r *stubInvoiceRepo) FindBySaleID(_ context.Context, tenantID, saleID uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv := r.findBySale(tenantID, saleID); inv != nil {
		cp := *inv
		return &cp, nil
	}
	return nil, apierror.NotFound("invoice not found")
}

func (r *stubInvoiceRepo) DeleteBySaleID(_ context.Context, _ *gorm.DB, tenantID, saleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv := r.findBySale(tenantID, saleID); inv != nil {
		delete(r.invoices, inv.ID)
	}
	return nil
}

func (r *stubInvoiceRepo) UpdateForSale(_ context.Context, _ *gorm.DB, tenantID, saleID uuid.UUID, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// stubSequenceRepo increments per (tenant, year) under a mutex. fail makes
// every call error, simulating an unreachable counter store.
type stubSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int64
	fail     bool
}

func newStubSequenceRepo() *stubSequenceRepo {
	return &stubSequenceRepo{counters: make(map[string]int64)}
}

func (r *stubSequenceRepo) Next(_ context.Context, _ *gorm.DB, tenantID uuid.UUID, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, fmt.Errorf("counter store unreachable")
	}
	key := fmt.Sprintf("%s:%d", tenantID, year)
	r.counters[key]++
	return r.counters[key], nil
}

var _ repository.SequenceRepository = (*stubSequenceRepo)(nil)

// stubAuditRepo records appended entries for assertion.
type stubAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (r *stubAuditRepo) Append(_ context.Context, _ *gorm.DB, e *model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, tenantID uuid.UUID, filter dto.AuditFilter) ([]model.AuditEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID && (filter.Action == "" || e.Action == filter.Action) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

var _ repository.AuditRepository = (*stubAuditRepo)(nil)

// stubCompanyRepo returns a fixed profile: "Kuber Gems", 6% tax.
type stubCompanyRepo struct {
	profile *model.CompanyProfile
}

func (r *stubCompanyRepo) FindByTenant(_ context.Context, _ uuid.UUID) (*model.CompanyProfile, error) {
	return r.profile, nil
}

func (r *stubCompanyRepo) Upsert(_ context.Context, p *model.CompanyProfile) error {
	r.profile = p
	return nil
}

var _ repository.CompanyRepository = (*stubCompanyRepo)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	tenantID  uuid.UUID
	svc       service.SettlementService
	invSvc    service.InvoiceService
	lots      *stubLotRepo
	sales     *stubSaleRepo
	invoices  *stubInvoiceRepo
	sequences *stubSequenceRepo
	audit     *stubAuditRepo
	companies *stubCompanyRepo
}

func newFixture() *fixture {
	lots := newStubLotRepo()
	sales := newStubSaleRepo(lots)
	invoices := newStubInvoiceRepo()
	sequences := newStubSequenceRepo()
	audit := &stubAuditRepo{}
	companies := &stubCompanyRepo{profile: &model.CompanyProfile{
		TenantID:    uuid.New(),
		CompanyName: "Kuber Gems",
		TaxRate:     d("6"),
	}}

	invSvc := service.NewInvoiceService(invoices, sales, sequences, companies, "INV")
	svc := service.NewSettlementService(lots, sales, invoices, audit, invSvc, nil)

	return &fixture{
		tenantID:  uuid.New(),
		svc:       svc,
		invSvc:    invSvc,
		lots:      lots,
		sales:     sales,
		invoices:  invoices,
		sequences: sequences,
		audit:     audit,
		companies: companies,
	}
}

// seedLot creates an in_stock lot with the given pieces and weight, purchase
// price 100 per carat.
func (f *fixture) seedLot(t *testing.T, serial string, pieces int, weight string) *model.Lot {
	t.Helper()
	lot := &model.Lot{
		TenantID:        f.tenantID,
		SerialNumber:    serial,
		TotalPieces:     pieces,
		AvailablePieces: pieces,
		TotalWeight:     d(weight),
		AvailableWeight: d(weight),
		WeightUnit:      "carat",
		PurchasePrice:   d("100"),
		PurchaseCode:    "PC-1",
		SaleCode:        "150",
		Status:          model.StatusInStock,
	}
	require.NoError(t, f.lots.Create(context.Background(), lot))
	return lot
}

func settleReq(lot *model.Lot, pieces int, weight, price string) dto.SettleSaleRequest {
	buyer := "buyer@example.com"
	return dto.SettleSaleRequest{
		LotID:      lot.ID.String(),
		SoldPieces: pieces,
		SoldWeight: d(weight),
		Price:      d(price),
		Currency:   "USD",
		Buyer:      &buyer,
		SoldDate:   time.Now(),
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestSettle_PartialSale(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "RUBY-001", 10, "50.000")

	resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 4, "20.000", "5000"))
	require.NoError(t, err)

	assert.Equal(t, 4, resp.SoldPieces)
	assert.Equal(t, "partially_sold", resp.LotStatus)
	assert.Equal(t, 6, resp.LotAvailablePieces)
	assertDec(t, "30", resp.LotAvailableWeight)

	// cost = 100 per carat, 20 carats sold; profit = 5000 - 2000
	assertDec(t, "2000", resp.CostPrice)
	assertDec(t, "3000", resp.Profit)

	// Invoice number: prefix from the first word of the company name.
	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("KUBER-%d-00001", year), resp.InvoiceNumber)

	// Audit trail got exactly one SELL_ITEM entry.
	assert.Equal(t, []string{model.AuditSellItem}, f.audit.actions())

	stored, err := f.lots.FindByID(context.Background(), f.tenantID, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartiallySold, stored.Status)
}

func TestSettle_InvoiceSplitsTax(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "RUBY-002", 10, "50.000")

	resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 2, "10.000", "1000"))
	require.NoError(t, err)

	inv, err := f.invSvc.GetBySale(context.Background(), f.tenantID, uuid.MustParse(resp.ID))
	require.NoError(t, err)

	// 6% tax on 1000 splits into 30 + 30.
	assertDec(t, "1000", inv.Subtotal)
	assertDec(t, "30", inv.CGSTAmount)
	assertDec(t, "30", inv.SGSTAmount)
	assertDec(t, "60", inv.TaxAmount)
	assertDec(t, "1060", inv.TotalAmount)
	assert.True(t, inv.CGSTAmount.Equal(inv.SGSTAmount))
}

func TestSettle_OversellRejected(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "RUBY-003", 5, "10.000")

	_, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 6, "5.000", "1000"))
	require.Error(t, err)
	assert.Equal(t, apierror.KindOversell, apierror.KindOf(err))

	// Nothing changed: no sale, no invoice, no audit entry, stock intact.
	assert.Empty(t, f.audit.actions())
	stored, _ := f.lots.FindByID(context.Background(), f.tenantID, lot.ID)
	assert.Equal(t, 5, stored.AvailablePieces)
	assert.Equal(t, model.StatusInStock, stored.Status)
}

func TestSettle_OversellOnWeightAxis(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "RUBY-004", 5, "10.000")

	_, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 2, "11.000", "1000"))
	require.Error(t, err)
	assert.Equal(t, apierror.KindOversell, apierror.KindOf(err))
}

func TestSettleFull_ThenAlreadySold(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "EMER-001", 8, "40.000")
	buyer := "buyer@example.com"

	resp, err := f.svc.SettleFull(context.Background(), f.tenantID, dto.SettleFullSaleRequest{
		LotID:    lot.ID.String(),
		Price:    d("9000"),
		Currency: "USD",
		Buyer:    &buyer,
		SoldDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.SoldPieces)
	assertDec(t, "40", resp.SoldWeight)
	assert.Equal(t, "sold", resp.LotStatus)
	assert.Equal(t, 0, resp.LotAvailablePieces)

	// A second settlement of any size must fail with AlreadySold.
	_, err = f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 1, "1.000", "100"))
	require.Error(t, err)
	assert.Equal(t, apierror.KindAlreadySold, apierror.KindOf(err))
}

func TestSettleFull_RejectedAfterPartialSale(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "EMER-002", 8, "40.000")
	buyer := "buyer@example.com"

	_, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 2, "10.000", "1000"))
	require.NoError(t, err)

	// One sale per lot on the full-sale path: the recorded partial sale
	// blocks selling the remainder whole.
	full := dto.SettleFullSaleRequest{
		LotID:    lot.ID.String(),
		Price:    d("6000"),
		Currency: "USD",
		Buyer:    &buyer,
		SoldDate: time.Now(),
	}
	_, err = f.svc.SettleFull(context.Background(), f.tenantID, full)
	require.Error(t, err)
	assert.Equal(t, apierror.KindAlreadySold, apierror.KindOf(err))

	// Reversing the partial sale makes the lot eligible again.
	sales, err := f.sales.ListAll(context.Background(), f.tenantID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.NoError(t, f.svc.Reverse(context.Background(), f.tenantID, sales[0].ID))

	resp, err := f.svc.SettleFull(context.Background(), f.tenantID, full)
	require.NoError(t, err)
	assert.Equal(t, 8, resp.SoldPieces)
	assert.Equal(t, "sold", resp.LotStatus)
}

func TestReverse_RestoresEverything(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "SAPH-001", 10, "50.000")

	resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 4, "20.000", "5000"))
	require.NoError(t, err)
	saleID := uuid.MustParse(resp.ID)

	require.NoError(t, f.svc.Reverse(context.Background(), f.tenantID, saleID))

	// Stock restored and status re-derived back to in_stock.
	stored, err := f.lots.FindByID(context.Background(), f.tenantID, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.AvailablePieces)
	assertDec(t, "50", stored.AvailableWeight)
	assert.Equal(t, model.StatusInStock, stored.Status)

	// Sale and invoice are gone.
	_, err = f.svc.GetSale(context.Background(), f.tenantID, saleID)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
	_, err = f.invoices.FindBySaleID(context.Background(), f.tenantID, saleID)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	// Audit trail kept both entries: the sale and its reversal.
	assert.Equal(t, []string{model.AuditSellItem, model.AuditReverseSale}, f.audit.actions())
}

func TestReverse_DoesNotReuseInvoiceNumber(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "SAPH-002", 10, "50.000")
	year := time.Now().Year()

	resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 2, "10.000", "1000"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("KUBER-%d-00001", year), resp.InvoiceNumber)

	require.NoError(t, f.svc.Reverse(context.Background(), f.tenantID, uuid.MustParse(resp.ID)))

	// The reversed settlement's number stays consumed.
	resp2, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 2, "10.000", "1000"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("KUBER-%d-00002", year), resp2.InvoiceNumber)
}

func TestReverse_SurvivesDeletedLot(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "SAPH-003", 10, "50.000")

	resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 4, "20.000", "5000"))
	require.NoError(t, err)
	saleID := uuid.MustParse(resp.ID)

	require.NoError(t, f.lots.SoftDelete(context.Background(), f.tenantID, lot.ID))

	// Reversal still deletes the sale and invoice; stock restoration is
	// skipped because the lot is gone.
	require.NoError(t, f.svc.Reverse(context.Background(), f.tenantID, saleID))
	_, err = f.svc.GetSale(context.Background(), f.tenantID, saleID)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestSettle_SequenceFailureAborts(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "OPAL-001", 10, "50.000")
	f.sequences.fail = true

	_, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 2, "10.000", "1000"))
	require.Error(t, err)
	assert.Equal(t, apierror.KindSequenceUnavailable, apierror.KindOf(err))
}

func TestSettle_UnknownLot(t *testing.T) {
	f := newFixture()
	buyer := "buyer@example.com"
	_, err := f.svc.Settle(context.Background(), f.tenantID, dto.SettleSaleRequest{
		LotID:      uuid.NewString(),
		SoldPieces: 1,
		SoldWeight: d("1.000"),
		Price:      d("100"),
		Currency:   "USD",
		Buyer:      &buyer,
		SoldDate:   time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestSettle_WrongTenant(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "OPAL-002", 10, "50.000")

	_, err := f.svc.Settle(context.Background(), uuid.New(), settleReq(lot, 1, "1.000", "100"))
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestSettle_ConcurrentOversell(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "DIAM-001", 10, "50.000")

	// Two settlements race for 6 of 10 pieces. Exactly one can win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 6, "30.000", "6000"))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case apierror.KindOf(err) == apierror.KindOversell,
			apierror.KindOf(err) == apierror.KindInsufficientStock:
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	stored, err := f.lots.FindByID(context.Background(), f.tenantID, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.AvailablePieces)
	assertDec(t, "20", stored.AvailableWeight)
	assert.Equal(t, model.StatusPartiallySold, stored.Status)
}

func TestConcurrentSettlements_DistinctInvoiceNumbers(t *testing.T) {
	f := newFixture()

	const n = 8
	lots := make([]*model.Lot, n)
	for i := range lots {
		lots[i] = f.seedLot(t, fmt.Sprintf("LOT-%03d", i), 10, "50.000")
	}

	var wg sync.WaitGroup
	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lots[i], 1, "5.000", "500"))
			if err == nil {
				numbers[i] = resp.InvoiceNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		require.NotEmpty(t, num)
		assert.False(t, seen[num], "invoice number %s minted twice", num)
		seen[num] = true
	}
}

func TestUpdateSale_PropagatesToInvoice(t *testing.T) {
	f := newFixture()
	lot := f.seedLot(t, "PERL-001", 10, "50.000")

	resp, err := f.svc.Settle(context.Background(), f.tenantID, settleReq(lot, 4, "20.000", "5000"))
	require.NoError(t, err)
	saleID := uuid.MustParse(resp.ID)

	buyer := "edited@example.com"
	updated, err := f.svc.UpdateSale(context.Background(), f.tenantID, saleID, dto.UpdateSaleRequest{
		Price:    d("6000"),
		Buyer:    &buyer,
		SoldDate: time.Now(),
	})
	require.NoError(t, err)

	// Profit recomputed against the recorded cost basis (2000).
	assertDec(t, "6000", updated.Price)
	assertDec(t, "4000", updated.Profit)

	inv, err := f.invSvc.GetBySale(context.Background(), f.tenantID, saleID)
	require.NoError(t, err)
	assertDec(t, "6000", inv.Subtotal)
	// 6% of 6000 split in half.
	assertDec(t, "180", inv.CGSTAmount)
	assertDec(t, "6360", inv.TotalAmount)

	assert.Equal(t, []string{model.AuditSellItem, model.AuditUpdateSale}, f.audit.actions())
}
