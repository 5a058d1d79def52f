package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"user-management-svc/internal/cache"
	"user-management-svc/internal/config"
	"user-management-svc/internal/middleware"
	"user-management-svc/internal/service"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
)

// SetupRoutes sets up all API routes. publicDir, when set, is served under /storage.
func SetupRoutes(
	router *gin.Engine,
	userService service.UserService,
	tokens *security.TokenManager,
	blacklist cache.TokenBlacklist,
	jwtConfig config.JWTConfig,
	publicDir string,
	logger *logger.Logger,
) {
	// Initialize handlers
	userHandler := NewUserHandler(userService, logger)
	authHandler := NewAuthHandler(userService, tokens, blacklist, jwtConfig, logger)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", HealthCheck)

	if publicDir != "" {
		router.Static("/storage", publicDir)
	}

	router.POST("/login", authHandler.Login)

	auth := router.Group("")
	auth.Use(middleware.AuthMiddleware(tokens, blacklist, jwtConfig.CookieName, logger))
	{
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authHandler.Me)

		// User routes
		users := auth.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/create", userHandler.CreateForm)
			users.POST("", userHandler.StoreUser)
			users.GET("/trashed", userHandler.ListTrashedUsers)
			users.GET("/edit/:id", userHandler.EditForm)
			users.DELETE("/destroy", userHandler.DestroyUsers)
			users.PATCH("/restore", userHandler.RestoreUsers)
			users.DELETE("/delete", userHandler.DeleteUsers)
			users.GET("/:id", userHandler.ShowUser)
			users.PUT("/:id", userHandler.UpdateUser)
		}
	}
}

// HealthCheck handles GET /health
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Server is running",
		"service": "User Management Service",
	})
}
