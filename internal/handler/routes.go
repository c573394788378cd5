package handler

import "github.com/gin-gonic/gin"

// Register mounts the v1 API on an already-authenticated group.
func Register(v1 *gin.RouterGroup, trading *TradingHandler, catalog *CatalogHandler) {
	v1.PUT("/credentials", trading.UpsertCredentials)

	v1.POST("/venue-a/sign", trading.SignVenueA)
	v1.POST("/venue-a/prices", trading.RefreshPrices)
	v1.GET("/venue-a/balance", trading.KalshiBalance)
	v1.POST("/venue-a/orders", trading.CreateKalshiOrder)

	v1.POST("/venue-b/sign", trading.SignVenueB)
	v1.POST("/orders/build", trading.BuildOrder)
	v1.POST("/orders", trading.SubmitOrder)
	v1.DELETE("/orders/:id", trading.CancelOrder)
	v1.GET("/trading-gate", trading.TradingGate)

	v1.GET("/events", catalog.Events)
}
