package handler

import (
	"net/http"
	"strconv"
	"time"

	"storya/internal/middleware"
	"storya/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderSvc *service.OrderService
}

func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// Create funds a new promotion order from the customer balance.
func (h *OrderHandler) Create(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	var req struct {
		Title              string    `json:"title" binding:"required,max=255"`
		TargetURL          string    `json:"target_url" binding:"required,url"`
		TrustLevelID       uint      `json:"trust_level_id" binding:"required"`
		PricePerStoryCents int64     `json:"price_per_story_cents" binding:"required,min=1"`
		Quantity           int       `json:"quantity" binding:"required,min=1"`
		Deadline           time.Time `json:"deadline" binding:"required"`
		RefundOnFailure    *bool     `json:"refund_on_failure"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	refundOnFailure := true
	if req.RefundOnFailure != nil {
		refundOnFailure = *req.RefundOnFailure
	}
	order, err := h.orderSvc.Create(customerID, service.CreateOrderInput{
		Title:              req.Title,
		TargetURL:          req.TargetURL,
		TrustLevelID:       req.TrustLevelID,
		PricePerStoryCents: req.PricePerStoryCents,
		Quantity:           req.Quantity,
		Deadline:           req.Deadline,
		RefundOnFailure:    refundOnFailure,
	}, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// List returns the customer's own orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderSvc.ListByCustomer(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// ListOpen returns claimable orders for executors.
func (h *OrderHandler) ListOpen(c *gin.Context) {
	orders, err := h.orderSvc.ListOpen(time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orderSvc.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Redirect resolves a QR token to the order's target URL. Public, no auth:
// the token lands on story viewers' phones. Expired tokens still redirect,
// they just stop counting.
func (h *OrderHandler) Redirect(c *gin.Context) {
	target, err := h.orderSvc.TrackRedirect(c.Param("token"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}
