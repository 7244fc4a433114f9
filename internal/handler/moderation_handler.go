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

type ModerationHandler struct {
	execSvc   *service.ExecutionService
	auditRepo *repository.AuditLogRepository
}

func NewModerationHandler(execSvc *service.ExecutionService, auditRepo *repository.AuditLogRepository) *ModerationHandler {
	return &ModerationHandler{execSvc: execSvc, auditRepo: auditRepo}
}

// Queue lists executions waiting for review.
func (h *ModerationHandler) Queue(c *gin.Context) {
	execs, err := h.execSvc.ListPendingReview()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": execs})
}

// Decide approves or rejects one execution. Approving pays the executor; a
// second decision on the same execution returns 409.
func (h *ModerationHandler) Decide(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid execution id"})
		return
	}
	var req struct {
		Approve bool   `json:"approve"`
		Comment string `json:"comment" binding:"max=512"`
		Rating  int    `json:"rating" binding:"omitempty,min=1,max=5"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Approve && req.Rating == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating required on approval"})
		return
	}
	moderatorID := middleware.GetUserID(c)
	exec, err := h.execSvc.Moderate(uint(id), service.ModerateInput{
		Approve:     req.Approve,
		ModeratorID: moderatorID,
		Comment:     req.Comment,
		Rating:      req.Rating,
	}, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	action := "execution_rejected"
	if req.Approve {
		action = "execution_approved"
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &moderatorID,
		Action:     action,
		Resource:   "execution",
		ResourceID: strconv.FormatUint(id, 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, exec)
}
