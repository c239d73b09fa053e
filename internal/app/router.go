package app

import (
	"sat_prep_backend/docs"
	"sat_prep_backend/internal/config"
	"sat_prep_backend/internal/middleware"
	"sat_prep_backend/internal/model"
	"sat_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/leaderboard", c.leaderboard.GetLeaderboard)
		public.GET("/tests", middleware.TryAuthMiddleware(cfg), c.test.ListTests)
		public.GET("/tests/:id", middleware.TryAuthMiddleware(cfg), c.test.GetTest)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.Profile)

		authGroup.POST("/tests/:id/attempts", c.attempt.StartAttempt)
		authGroup.GET("/tests/:id/attempts/status", c.attempt.GetAttemptStatus)
		authGroup.POST("/attempts/:id/submit", c.attempt.SubmitAttempt)
	}

	// 管理员/导师接口
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Mentor))
	{
		adminGroup.POST("/tests", c.test.CreateTest)
		adminGroup.PUT("/tests/:id/publish", c.test.PublishTest)
	}
}
