package handler

import (
	"net/http"

	"github.com/GoPolymarket/polydesk/internal/middleware"
	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/service"
	"github.com/gin-gonic/gin"
)

type TradingHandler struct {
	svc *service.TradingService
}

func NewTradingHandler(svc *service.TradingService) *TradingHandler {
	return &TradingHandler{svc: svc}
}

// bind decodes the JSON body, attaching an INVALID_REQUEST error on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInvalidRequest, err.Error(), err))
		return false
	}
	return true
}

func userID(c *gin.Context) string {
	if acc := middleware.CurrentAccount(c); acc != nil {
		return acc.UserID
	}
	return ""
}

func (h *TradingHandler) SignVenueA(c *gin.Context) {
	var req model.SignVenueARequest
	if !bind(c, &req) {
		return
	}
	headers, err := h.svc.SignVenueA(c.Request.Context(), userID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, headers)
}

func (h *TradingHandler) SignVenueB(c *gin.Context) {
	var req model.SignVenueBRequest
	if !bind(c, &req) {
		return
	}
	headers, err := h.svc.SignVenueB(c.Request.Context(), userID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, headers)
}

func (h *TradingHandler) BuildOrder(c *gin.Context) {
	var req model.BuildOrderRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.BuildOrder(c.Request.Context(), userID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TradingHandler) SubmitOrder(c *gin.Context) {
	var req model.SubmitOrderRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.SubmitOrder(c.Request.Context(), userID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TradingHandler) CancelOrder(c *gin.Context) {
	resp, err := h.svc.CancelOrder(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TradingGate expects the connected wallet in ?address=.
func (h *TradingHandler) TradingGate(c *gin.Context) {
	res, err := h.svc.EvaluateTradingGate(c.Request.Context(), userID(c), c.Query("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TradingHandler) RefreshPrices(c *gin.Context) {
	var req model.RefreshPricesRequest
	if !bind(c, &req) {
		return
	}
	quotes, err := h.svc.RefreshPrices(c.Request.Context(), userID(c), req.Tickers)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func (h *TradingHandler) KalshiBalance(c *gin.Context) {
	bal, err := h.svc.KalshiBalance(c.Request.Context(), userID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *TradingHandler) CreateKalshiOrder(c *gin.Context) {
	var req model.KalshiOrderRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.svc.CreateKalshiOrder(c.Request.Context(), userID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *TradingHandler) UpsertCredentials(c *gin.Context) {
	var req model.UpsertCredentialsRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.UpsertCredentials(c.Request.Context(), userID(c), req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
