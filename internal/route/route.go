// Package route registers the HTTP routes of the smart-wallet deployment service.
package route

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asgarovf/smart-wallet/internal/config"
	"github.com/asgarovf/smart-wallet/internal/controller"
	"github.com/asgarovf/smart-wallet/internal/middleware"
	"github.com/asgarovf/smart-wallet/internal/utils/observability"
)

// Route register routes of the deployment server
func Route(router *gin.Engine, conf *config.Config, reg prometheus.Registerer, ready observability.ReadyChecker) {
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	observability.Use(router, "smart_wallet", reg)

	rootGroup := router.Group("")
	registerProbeRoutes(rootGroup, ready)
	registerDeployRoutes(rootGroup, conf)
}

func registerProbeRoutes(rootGroup *gin.RouterGroup, ready observability.ReadyChecker) {
	probes := observability.NewProbesController(ready)
	rootGroup.GET("/health", probes.HealthCheck)
	rootGroup.GET("/ready", probes.Ready)
}

func registerDeployRoutes(rootGroup *gin.RouterGroup, conf *config.Config) {
	rootGroup.GET("/deploy", controller.DeployCtl.Status)
	rootGroup.POST("/deploy", middleware.AuthMiddleware(conf), middleware.RateLimiter(conf), controller.DeployCtl.Deploy)
	rootGroup.GET("/deploy/:salt", middleware.AuthMiddleware(conf), controller.DeployCtl.GetDeployment)
	rootGroup.GET("/deployments/stats", middleware.AuthMiddleware(conf), controller.DeployCtl.GetStats)
}
