package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gatehouse/identity-system/internal/api/handler"
	"github.com/gatehouse/identity-system/internal/api/middleware"
	"github.com/gatehouse/identity-system/internal/core/ports"
	"github.com/gatehouse/identity-system/internal/core/service"
	"github.com/gatehouse/identity-system/internal/infrastructure/config"
	mongostore "github.com/gatehouse/identity-system/internal/infrastructure/db/mongo"
	redisstore "github.com/gatehouse/identity-system/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The audit recorder is injected so its worker lifecycle stays with main.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, audit ports.AuditRecorder, auditQuery ports.AuditService, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	roleRepo := mongostore.NewRoleRepository(db)
	sessionStore := redisstore.NewSessionStore(rdb)
	throttleStore := redisstore.NewThrottleStore(rdb)

	policy := service.NewPasswordPolicy()
	roleService := service.NewRoleService(roleRepo, userRepo, log)
	userService := service.NewUserService(userRepo, roleService, policy, cfg.PhoneRegion, log)
	sessionService := service.NewSessionService(sessionStore, userRepo, roleRepo, cfg.JWTSecret, log)
	throttle := service.NewLoginThrottle(throttleStore, log)
	gate := service.NewAuthorizationGate()

	authHandler := handler.NewAuthHandler(userService, sessionService, throttle, audit)
	userHandler := handler.NewUserHandler(userService, audit)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditQuery)

	authRequired := middleware.Auth(sessionService)
	superuserOnly := middleware.RequireSuperuser(gate)

	// --- Public auth routes ---
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)

	// --- Session-holder routes ---
	me := e.Group("/auth", authRequired)
	me.POST("/logout", authHandler.Logout)
	me.GET("/me", authHandler.Me)
	me.PUT("/me", authHandler.UpdateMe)
	me.PUT("/me/password", authHandler.ChangePassword)
	me.PUT("/me/avatar", authHandler.SetAvatar)

	// --- Administrative routes (superuser only) ---
	admin := e.Group("/admin", authRequired, superuserOnly)
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id/role", userHandler.SetRole)
	admin.PUT("/users/:id/active", userHandler.SetActive)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.GET("/roles", roleHandler.List)
	admin.POST("/roles", roleHandler.Create)
	admin.PUT("/roles/:id", roleHandler.Update)
	admin.DELETE("/roles/:id", roleHandler.Delete)
	admin.PUT("/roles/:id/default", roleHandler.SetDefault)
	admin.GET("/stats", userHandler.Stats)
	admin.GET("/audit", auditHandler.List)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
