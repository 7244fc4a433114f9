package handler

import (
	"net/http"
	"strconv"
	"time"

	"storya/internal/middleware"
	"storya/internal/models"
	"storya/internal/repository"
	"storya/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler bundles the operator surface: tier management, platform
// settings, payout processing and manual sweeps.
type AdminHandler struct {
	trustRepo   *repository.TrustLevelRepository
	settingRepo *repository.SettingRepository
	userRepo    *repository.UserRepository
	auditRepo   *repository.AuditLogRepository
	paymentSvc  *service.PaymentService
	refundSvc   *service.RefundService
	trustSvc    *service.TrustService
}

func NewAdminHandler(
	trustRepo *repository.TrustLevelRepository,
	settingRepo *repository.SettingRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	paymentSvc *service.PaymentService,
	refundSvc *service.RefundService,
	trustSvc *service.TrustService,
) *AdminHandler {
	return &AdminHandler{
		trustRepo:   trustRepo,
		settingRepo: settingRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		paymentSvc:  paymentSvc,
		refundSvc:   refundSvc,
		trustSvc:    trustSvc,
	}
}

// --- trust tiers ---

func (h *AdminHandler) ListTrustLevels(c *gin.Context) {
	tiers, err := h.trustRepo.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trust_levels": tiers})
}

func (h *AdminHandler) CreateTrustLevel(c *gin.Context) {
	var req struct {
		Name                  string  `json:"name" binding:"required,max=64"`
		MinExecutions         int     `json:"min_executions" binding:"min=0"`
		MinRating             float64 `json:"min_rating" binding:"min=0,max=5"`
		MinDaysActive         int     `json:"min_days_active" binding:"min=0"`
		CommissionRate        float64 `json:"commission_rate" binding:"required,gt=0,lt=1"`
		MinPricePerStoryCents int64   `json:"min_price_per_story_cents" binding:"min=0"`
		MaxDailyExecutions    int     `json:"max_daily_executions" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := &models.TrustLevel{
		Name:                  req.Name,
		MinExecutions:         req.MinExecutions,
		MinRating:             req.MinRating,
		MinDaysActive:         req.MinDaysActive,
		CommissionRate:        req.CommissionRate,
		MinPricePerStoryCents: req.MinPricePerStoryCents,
		MaxDailyExecutions:    req.MaxDailyExecutions,
		Active:                true,
	}
	if err := h.trustRepo.Create(t); err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "trust_level_created", "trust_level", strconv.FormatUint(uint64(t.ID), 10))
	c.JSON(http.StatusCreated, t)
}

// UpdateTrustLevel changes tier settings. Existing orders keep the split
// frozen at their creation; only new orders see the change.
func (h *AdminHandler) UpdateTrustLevel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trust level id"})
		return
	}
	t, err := h.trustRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Name                  *string  `json:"name"`
		MinExecutions         *int     `json:"min_executions"`
		MinRating             *float64 `json:"min_rating"`
		MinDaysActive         *int     `json:"min_days_active"`
		CommissionRate        *float64 `json:"commission_rate"`
		MinPricePerStoryCents *int64   `json:"min_price_per_story_cents"`
		MaxDailyExecutions    *int     `json:"max_daily_executions"`
		Active                *bool    `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CommissionRate != nil && (*req.CommissionRate <= 0 || *req.CommissionRate >= 1) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commission_rate must be between 0 and 1"})
		return
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.MinExecutions != nil {
		t.MinExecutions = *req.MinExecutions
	}
	if req.MinRating != nil {
		t.MinRating = *req.MinRating
	}
	if req.MinDaysActive != nil {
		t.MinDaysActive = *req.MinDaysActive
	}
	if req.CommissionRate != nil {
		t.CommissionRate = *req.CommissionRate
	}
	if req.MinPricePerStoryCents != nil {
		t.MinPricePerStoryCents = *req.MinPricePerStoryCents
	}
	if req.MaxDailyExecutions != nil {
		t.MaxDailyExecutions = *req.MaxDailyExecutions
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if err := h.trustRepo.Update(t); err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "trust_level_updated", "trust_level", c.Param("id"))
	c.JSON(http.StatusOK, t)
}

// --- settings ---

func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) SetSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required,max=100"`
		Value string `json:"value" binding:"required,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "setting_updated", "setting", req.Key)
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}

// --- payouts ---

func (h *AdminHandler) ListPayouts(c *gin.Context) {
	status := c.DefaultQuery("status", "PENDING")
	payouts, err := h.paymentSvc.ListPayoutsByStatus(status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// AdvancePayout moves a payout to the target status. Failing or cancelling a
// payout returns the money to the executor.
func (h *AdminHandler) AdvancePayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payout, err := h.paymentSvc.AdvancePayout(uint(id), req.Status, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "payout_"+req.Status, "payout", c.Param("id"))
	c.JSON(http.StatusOK, payout)
}

// SubmitPayout hands a PENDING payout to the payment provider.
func (h *AdminHandler) SubmitPayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}
	var req struct {
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payout, err := h.paymentSvc.SubmitPayoutToProvider(c.Request.Context(), uint(id), req.Destination, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	h.audit(c, "payout_submitted", "payout", c.Param("id"))
	c.JSON(http.StatusOK, payout)
}

// --- sweeps ---

// RunRefundSweep triggers one refund sweep pass outside the schedule.
func (h *AdminHandler) RunRefundSweep(c *gin.Context) {
	result := h.refundSvc.RunRefundSweep(time.Now())
	h.audit(c, "refund_sweep", "sweep", "")
	c.JSON(http.StatusOK, result)
}

// RunTierSweep re-evaluates executor tiers outside the schedule.
func (h *AdminHandler) RunTierSweep(c *gin.Context) {
	updated := h.trustSvc.UpgradeTiers(time.Now())
	h.audit(c, "tier_sweep", "sweep", "")
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// --- users ---

func (h *AdminHandler) ListUsers(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role query param required"})
		return
	}
	users, err := h.userRepo.ListByRole(role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.auditRepo.List(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *AdminHandler) audit(c *gin.Context, action, resource, resourceID string) {
	adminID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}
