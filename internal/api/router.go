package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fabric-inspection-backend/config"
	"fabric-inspection-backend/internal/mw"
	"fabric-inspection-backend/internal/store"
	"fabric-inspection-backend/internal/telemetry"
	"fabric-inspection-backend/internal/workflow"
)

// NewRouter creates and configures a new Gin router for the workstation API.
func NewRouter(cfg *config.ServerConfig, session *workflow.Session, s store.Store, poller *telemetry.Poller, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(session, s, poller, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/scan", handler.Scan)

		api.GET("/state", handler.GetState)
		api.PUT("/state/tab", handler.SelectTab)

		api.POST("/rolls", handler.CreateRoll)
		api.GET("/rolls/:roll_id", handler.GetRoll)
		api.PATCH("/rolls/:roll_id", handler.UpdateRoll)
		api.POST("/rolls/:roll_id/finalize", handler.RequestFinalize)
		api.POST("/rolls/:roll_id/finalize/confirm", handler.ConfirmFinalize)
		api.DELETE("/rolls/:roll_id/finalize", handler.CancelFinalize)

		api.GET("/rolls/:roll_id/defects", handler.ListDefects)
		api.POST("/rolls/:roll_id/defects", handler.AddDefect)
		api.POST("/rolls/:roll_id/defects/at-position", handler.AddDefectAtPosition)
		api.POST("/defects/:defect_id/delete-intent", handler.RequestDefectDelete)
		api.DELETE("/defects/:defect_id", handler.RemoveDefect)

		api.GET("/telemetry", handler.GetTelemetry)
		api.POST("/telemetry/apply", handler.ApplyManualMeasurement)

		api.GET("/defect-codes", caching, handler.GetDefectCodes)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
