package api

import (
	"github.com/LENAX/saucer/pkg/api/handler"
	"github.com/LENAX/saucer/pkg/api/middleware"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/gin-gonic/gin"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Runner  handler.Runner
	History storage.RunRepository // 可以为nil
	Stream  *handler.EventStream  // 可以为nil，此时不提供 /api/v1/events
	Version string
}

// SetupRouter 设置路由
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	runHandler := handler.NewRunHandler(deps.Runner, deps.History)
	planHandler := handler.NewPlanHandler(deps.Runner)
	healthHandler := handler.NewHealthHandler(deps.Runner, deps.History, deps.Version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		{
			runs.GET("", runHandler.List)
			runs.POST("", runHandler.Trigger)
			runs.GET("/:id", runHandler.Get)
		}
		v1.GET("/status", runHandler.Status)
		v1.GET("/plan", planHandler.Get)
		if deps.Stream != nil {
			v1.GET("/events", deps.Stream.Serve)
		}
	}

	return router
}
