package handler

import (
	"net/http"
	"strconv"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Events returns the aggregated catalog. A degraded result is still a 200.
func (h *CatalogHandler) Events(c *gin.Context) {
	f := service.EventFilter{Category: c.Query("category")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = c.Error(apperrors.NewInvalidRequest("limit must be a non-negative integer"))
			return
		}
		f.Limit = n
	}
	res, err := h.svc.Events(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
