package router

import (
	"log"
	"time"

	"curanet/config"
	"curanet/internal/domain"
	"curanet/internal/handler"
	"curanet/internal/middleware"
	"curanet/internal/repository"
	"curanet/internal/service"
	"curanet/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	// The hub is built once here and injected everywhere it is needed;
	// nothing reaches it through package-level state.
	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath, userRepo)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, hub, fcmSvc)
	presenceSvc := service.NewPresenceService(presenceRepo, hub)
	if cfg.Stream.WebhookSecret == "" && cfg.Stream.AllowUnsigned {
		log.Printf("[Webhook] WARNING: signature verification disabled (STREAM_WEBHOOK_ALLOW_UNSIGNED)")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(userRepo, presenceRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, notifSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentRepo, userRepo, notifSvc)
	webhookHandler := handler.NewStreamWebhookHandler(&cfg.Stream, notifSvc, userRepo, assignmentRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.GET("/presence", meHandler.GetMyPresence)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
			notifications.POST("/message", notificationHandler.CreateMessage)
			notifications.POST("/system", middleware.RequireRole(domain.RoleAdmin), notificationHandler.CreateSystem)
			notifications.POST("/call", notificationHandler.CreateCall)
			notifications.POST("/assignment", middleware.RequireRole(domain.RoleDoctor, domain.RoleAdmin), notificationHandler.CreateAssignment)
		}

		api.POST("/assignments", authMw, middleware.RequireRole(domain.RoleDoctor), assignmentHandler.Create)
		api.GET("/assignments", authMw, assignmentHandler.List)

		api.POST("/webhooks/stream", webhookHandler.Handle)
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationWS(&cfg.JWT, hub, notifSvc, presenceSvc))

	return r
}
