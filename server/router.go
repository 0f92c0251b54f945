package server

import (
	"time"

	httpHandler "content-scheduler/interfaces/http"
	"content-scheduler/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	SecretKey      string
	AllowedOrigins []string
}

func InitiateRouter(
	cfg RouterConfig,
	healthHandler httpHandler.IHealthHandler,
	schedulerHandler httpHandler.ISchedulerHandler,
	accountHandler httpHandler.IAccountHandler,
	publishStream gin.HandlerFunc,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)
	// OAuth provider redirects land here without a bearer token.
	router.GET("/auth/:platform/callback", accountHandler.OAuthCallback)

	api := router.Group("api")
	api.Use(middleware.Auth(cfg.SecretKey))

	scheduler := api.Group("/scheduler")
	{
		scheduler.POST("/run", schedulerHandler.RunNow)
		scheduler.GET("/runs", schedulerHandler.RecentRuns)
	}
	api.GET("/schedules/:id/stats", schedulerHandler.ScheduleStats)

	accounts := api.Group("/accounts")
	{
		accounts.GET("/oauth/url", accountHandler.OAuthURL)
		accounts.POST("/:id/refresh", accountHandler.RefreshAccount)
		accounts.POST("/:id/test", accountHandler.TestAccount)
	}

	if publishStream != nil {
		api.GET("/publish/stream", publishStream)
	}

	return router
}
