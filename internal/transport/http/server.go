package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "gopherauth/internal/app"
	"gopherauth/internal/bootstrap"
	"gopherauth/internal/config"
	"gopherauth/internal/platform/rabbitmq"
	"gopherauth/internal/repository"
	"gopherauth/internal/transport/http/handler"
	"gopherauth/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.Log))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	authService := appsvc.NewAuthService(userRepo, app.Log, appsvc.AuthOptions{
		JWTSecret:     app.Config.Auth.JWTSecret,
		JWTExpiration: time.Duration(app.Config.Auth.JWTExpireMinute) * time.Minute,
		BcryptCost:    app.Config.Auth.BcryptCost,
		Profiles:      app.Profiles,
		Events:        rabbitmq.NewUserEventPublisher(app.MQConn, app.Config.RabbitMQ.UserEventQueue),
	})
	RegisterAPI(router, authService, app.Config.Auth)

	return router
}

// RegisterAPI mounts the versioned auth and admin routes.
func RegisterAPI(router gin.IRouter, authService *appsvc.AuthService, auth config.AuthConfig) {
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(authService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(auth.JWTSecret), authHandler.Me)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AdminKey(auth.AdminAPIKey))
	adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
}
