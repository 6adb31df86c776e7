package router

import (
	"time"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/config"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/handler"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/middleware"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/repository"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/service"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/worker"

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
	documentoRepo := repository.NewDocumentoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	documentoSvc := service.NewDocumentoService(documentoRepo, clienteRepo, usuarioRepo, dispatcher, cfg.DBTimeout())
	consultaSvc := service.NewConsultaService(documentoRepo, cfg.DBTimeout())
	clienteSvc := service.NewClienteService(clienteRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	documentosH := handler.NewDocumentosHandler(documentoSvc, consultaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Documentos — gestor y administrador operan; el tipo viaja en la ruta
		docs := v1.Group("/documentos/:tipo", middleware.RequireRole("gestor", "administrador"))
		{
			docs.POST("", documentosH.Crear)
			docs.GET("", documentosH.Listar)
			docs.GET("/siguiente-numero", documentosH.SiguienteNumero)
			docs.GET("/:id", documentosH.Obtener)
			docs.PUT("/:id", documentosH.Actualizar)
			docs.PATCH("/:id/estado", documentosH.CambiarEstado)
			docs.DELETE("/:id", documentosH.Eliminar)
		}

		// Clientes — lectura para todos los autenticados, escritura administrador
		v1.GET("/clientes", middleware.RequireRole("gestor", "administrador"), clientesH.Listar)
		v1.GET("/clientes/:id", middleware.RequireRole("gestor", "administrador"), clientesH.Obtener)
		clientes := v1.Group("/clientes", middleware.RequireRole("administrador"))
		{
			clientes.POST("", clientesH.Crear)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", clientesH.Desactivar)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
