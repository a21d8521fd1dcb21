package router

import (
	"time"

	"github.com/lashkaryadi/kuber-be/internal/config"
	"github.com/lashkaryadi/kuber-be/internal/handler"
	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/repository"
	"github.com/lashkaryadi/kuber-be/internal/service"
	"github.com/lashkaryadi/kuber-be/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	lotRepo := repository.NewLotRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	invoiceSvc := service.NewInvoiceService(invoiceRepo, saleRepo, sequenceRepo, companyRepo, cfg.DefaultInvoicePrefix)
	settlementSvc := service.NewSettlementService(lotRepo, saleRepo, invoiceRepo, auditRepo, invoiceSvc, dispatcher)
	lotSvc := service.NewLotService(lotRepo, categoryRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	dashboardSvc := service.NewDashboardService(lotRepo, saleRepo)
	exportSvc := service.NewExportService(saleRepo)
	auditSvc := service.NewAuditService(auditRepo)
	companySvc := service.NewCompanyService(companyRepo, cfg.DefaultInvoicePrefix)

	// ── Handlers ─────────────────────────────────────────────────────────────
	lotsH := handler.NewLotsHandler(lotSvc)
	salesH := handler.NewSalesHandler(settlementSvc, exportSvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	auditH := handler.NewAuditHandler(auditSvc)
	companyH := handler.NewCompanyHandler(companySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Everything below is tenant-scoped
	v1 := r.Group("/v1", middleware.Tenant())
	{
		lots := v1.Group("/lots")
		{
			lots.POST("", lotsH.Create)
			lots.GET("", lotsH.List)
			lots.GET("/:id", lotsH.Get)
			lots.PUT("/:id", lotsH.Update)
			lots.DELETE("/:id", lotsH.Delete)
			lots.POST("/import", lotsH.Import)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.Settle)
			sales.POST("/full", salesH.SettleFull)
			sales.GET("", salesH.List)
			sales.GET("/export", salesH.Export)
			sales.GET("/:id", salesH.Get)
			sales.PUT("/:id", salesH.Update)
			sales.DELETE("/:id", salesH.Reverse)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.GET("/sale/:id", invoicesH.GetBySale)
			invoices.GET("/:id", invoicesH.Get)
		}

		v1.GET("/dashboard", dashboardH.Summary)
		v1.GET("/audit", auditH.List)

		categories := v1.Group("/categories")
		{
			categories.POST("", categoriesH.Create)
			categories.GET("", categoriesH.List)
			categories.DELETE("/:id", categoriesH.Delete)
		}

		company := v1.Group("/company")
		{
			company.GET("", companyH.Get)
			company.PUT("", companyH.Upsert)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
