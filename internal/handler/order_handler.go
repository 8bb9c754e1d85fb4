package handler

import (
	"net/http"

	"circuitrack/internal/middleware"
	"circuitrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	settlement *service.SettlementService
}

func NewOrderHandler(settlement *service.SettlementService) *OrderHandler {
	return &OrderHandler{settlement: settlement}
}

type PlaceOrderRequest struct {
	Items     []service.OrderItemInput `json:"items"`
	Subtotal  decimal.Decimal          `json:"subtotal"`
	CompanyID *string                  `json:"company_id"`
}

// PlaceOrder handles POST /orders.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.settlement.PlaceOrder(c.Request.Context(), service.PlaceOrderInput{
		UserID:    middleware.GetUserID(c),
		Items:     req.Items,
		Subtotal:  req.Subtotal,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		writeError(c, err, "checkout failed")
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.settlement.ListOrders(c.Request.Context(), middleware.GetUserID(c), limit, (page-1)*limit)
	if err != nil {
		writeError(c, err, "list failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "page": page, "limit": limit})
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.settlement.GetOrder(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "order lookup failed")
		return
	}
	c.JSON(http.StatusOK, o)
}
