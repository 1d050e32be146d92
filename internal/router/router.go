package router

import (
	"time"

	"mvsat/internal/config"
	"mvsat/internal/handler"
	"mvsat/internal/metrics"
	"mvsat/internal/middleware"
	"mvsat/internal/repository"
	"mvsat/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dashboardCacheTTL = 30 * time.Second

// Deps are the infrastructure handles built by the composition root.
// Only DB is required.
type Deps struct {
	DB         *gorm.DB
	RDB        *redis.Client
	Locker     service.CycleLocker
	Dispatcher service.JobDispatcher
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer // prometheus.DefaultGatherer when nil
	Location   *time.Location
	Taxa       decimal.Decimal
	Clock      func() time.Time
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
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
	funcionarioRepo := repository.NewFuncionarioRepository(deps.DB)
	clienteRepo := repository.NewClienteRepository(deps.DB)
	assinaturaRepo := repository.NewAssinaturaRepository(deps.DB)
	cobrancaRepo := repository.NewCobrancaRepository(deps.DB)
	tvboxRepo := repository.NewTvBoxRepository(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(funcionarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo)
	assinaturaSvc := service.NewAssinaturaService(assinaturaRepo, clienteRepo)
	cobrancaSvc := service.NewCobrancaService(cobrancaRepo, clienteRepo, assinaturaRepo, service.CobrancaOptions{
		Locker:     deps.Locker,
		Dispatcher: deps.Dispatcher,
		Metrics:    deps.Metrics,
		Location:   deps.Location,
		Clock:      deps.Clock,
	})
	tvboxSvc := service.NewTvBoxService(tvboxRepo, service.TvBoxOptions{
		Taxa:     deps.Taxa,
		Metrics:  deps.Metrics,
		Location: deps.Location,
		Clock:    deps.Clock,
	})
	dashboardSvc := service.NewDashboardService(clienteRepo, cobrancaRepo, tvboxRepo, service.DashboardOptions{
		Location: deps.Location,
		Clock:    deps.Clock,
		CacheTTL: dashboardCacheTTL,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	funcionariosH := handler.NewFuncionariosHandler(authSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	assinaturasH := handler.NewAssinaturasHandler(assinaturaSvc)
	cobrancasH := handler.NewCobrancasHandler(cobrancaSvc)
	tvboxH := handler.NewTvBoxHandler(tvboxSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.RDB))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	todos := middleware.RequireRole("administrador", "financeiro", "atendente")
	financeiro := middleware.RequireRole("administrador", "financeiro")
	admin := middleware.RequireRole("administrador")

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/dashboard", todos, dashboardH.Resumo)

		clientes := v1.Group("/clientes")
		{
			clientes.GET("", todos, clientesH.Listar)
			clientes.GET("/:id", todos, clientesH.ObterPorID)
			clientes.POST("", todos, clientesH.Criar)
			clientes.PUT("/:id", todos, clientesH.Atualizar)
			clientes.DELETE("/:id", admin, clientesH.Desativar)
		}

		assinaturas := v1.Group("/assinaturas")
		{
			assinaturas.GET("", todos, assinaturasH.Listar)
			assinaturas.GET("/:id", todos, assinaturasH.ObterPorID)
			assinaturas.POST("", financeiro, assinaturasH.Criar)
			assinaturas.PUT("/:id", financeiro, assinaturasH.Atualizar)
			assinaturas.DELETE("/:id", admin, assinaturasH.Desativar)
		}

		cobrancas := v1.Group("/cobrancas")
		{
			cobrancas.GET("", todos, cobrancasH.Listar)
			cobrancas.GET("/:id", todos, cobrancasH.ObterPorID)
			cobrancas.POST("", financeiro, cobrancasH.Criar)
			cobrancas.DELETE("/:id", admin, cobrancasH.Excluir)
			cobrancas.POST("/:id/baixa", financeiro, cobrancasH.Baixar)
			cobrancas.POST("/:id/reabrir", financeiro, cobrancasH.Reabrir)
		}

		tvbox := v1.Group("/tvbox")
		{
			tvbox.GET("", todos, tvboxH.Listar)
			tvbox.GET("/:id", todos, tvboxH.ObterPorID)
			tvbox.GET("/:id/pagamentos", todos, tvboxH.ListarPagamentos)
			tvbox.POST("", financeiro, tvboxH.Criar)
			tvbox.PUT("/:id", financeiro, tvboxH.Atualizar)
			tvbox.POST("/:id/renovar", financeiro, tvboxH.Renovar)
		}

		funcionarios := v1.Group("/funcionarios", admin)
		{
			funcionarios.POST("", funcionariosH.Criar)
			funcionarios.GET("", funcionariosH.Listar)
			funcionarios.DELETE("/:id", funcionariosH.Desativar)
		}
	}

	// Swagger UI — only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
