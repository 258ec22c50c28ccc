package router

import (
	"context"
	"time"

	"comandas/internal/config"
	"comandas/internal/costing"
	"comandas/internal/handler"
	"comandas/internal/infra"
	"comandas/internal/middleware"
	"comandas/internal/repository"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP router and the
// background workers.
type Services struct {
	Costeo      service.CosteoService
	Receta      service.RecetaService
	Lote        service.LoteService
	Ingrediente service.IngredienteService
	Plato       service.PlatoService
	// Cache is nil without Redis.
	Cache *service.CosteoCache
}

// NewServices wires repositories and services.
// Dependency graph: Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, queue service.ReconciliacionQueue) (*Services, error) {
	margen, err := cfg.Margen()
	if err != nil {
		return nil, err
	}
	policy, err := costing.NewMarginPolicy(margen)
	if err != nil {
		return nil, err
	}
	evaluator := costing.NewEvaluator(policy)

	// ── Repositories ─────────────────────────────────────────────────────────
	ingredienteRepo := repository.NewIngredienteRepository(db)
	platoRepo := repository.NewPlatoRepository(db)
	loteRepo := repository.NewLoteRepository(db)
	recetaRepo := repository.NewRecetaRepository(db)
	correccionRepo := repository.NewCorreccionLoteRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	movimientoRepo := repository.NewMovimientoLoteRepository(db)

	cache := service.NewCosteoCache(rdb, cfg.CosteoCacheTTL, infra.DefaultCBConfig())

	// ── Services ─────────────────────────────────────────────────────────────
	return &Services{
		Costeo:      service.NewCosteoService(snapshotRepo, recetaRepo, correccionRepo, platoRepo, evaluator, cache),
		Receta:      service.NewRecetaService(recetaRepo, ingredienteRepo, platoRepo, loteRepo, correccionRepo, cache),
		Lote:        service.NewLoteService(loteRepo, movimientoRepo, ingredienteRepo, queue, cache),
		Ingrediente: service.NewIngredienteService(ingredienteRepo),
		Plato:       service.NewPlatoService(platoRepo),
		Cache:       cache,
	}, nil
}

// New returns a configured Gin engine. ctx bounds the rate limiters'
// background purge.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(ctx, 1000, time.Minute)) // 1000 req/min per IP

	// Whole-snapshot operations get a tighter budget.
	heavy := middleware.RateLimiter(ctx, 30, time.Minute)

	// ── Handlers ─────────────────────────────────────────────────────────────
	ingredientesH := handler.NewIngredientesHandler(svcs.Ingrediente)
	platosH := handler.NewPlatosHandler(svcs.Plato)
	lotesH := handler.NewLotesHandler(svcs.Lote)
	recetasH := handler.NewRecetasHandler(svcs.Receta)
	costeoH := handler.NewCosteoHandler(svcs.Costeo, cfg.PDFStoragePath)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, svcs.Cache))

	admin := middleware.RolAdministrador
	chef := middleware.RolChef
	cajero := middleware.RolCajero
	readers := middleware.RequireRole(admin, chef, cajero)
	writers := middleware.RequireRole(admin, chef)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/ingredientes", readers, ingredientesH.Listar)
		v1.POST("/ingredientes", writers, ingredientesH.Crear)
		v1.GET("/ingredientes/:id/lotes", readers, lotesH.ListarPorIngrediente)

		v1.GET("/platos", readers, platosH.Listar)
		v1.POST("/platos", writers, platosH.Crear)
		v1.GET("/platos/:id/costeo", readers, costeoH.CostearPlato)
		v1.GET("/platos/:id/ficha", writers, costeoH.Ficha)

		v1.POST("/lotes", writers, lotesH.Registrar)
		v1.POST("/lotes/import", middleware.RequireRole(admin), heavy, lotesH.Importar)
		v1.PATCH("/lotes/:id/restante", writers, lotesH.AjustarRestante)
		v1.GET("/lotes/:id/movimientos", readers, lotesH.ListarMovimientos)

		v1.POST("/recetas", writers, recetasH.Crear)
		v1.PUT("/recetas/:id/lote", writers, recetasH.AsignarLote)
		v1.DELETE("/recetas/:id", middleware.RequireRole(admin), recetasH.Desactivar)
		v1.GET("/recetas/:id/correcciones", readers, recetasH.ListarCorrecciones)
		v1.GET("/recetas/:id/costeo", readers, costeoH.CostearReceta)

		v1.GET("/costeos", readers, costeoH.Listar)

		v1.GET("/reconciliacion", writers, costeoH.PlanificarReconciliacion)
		v1.POST("/reconciliacion", writers, heavy, costeoH.Reconciliar)
		v1.GET("/reconciliacion/fallidas", middleware.RequireRole(admin), handler.FallidasReconciliacion(rdb))
	}

	return r
}
