package handler

import (
	"net/http"
	"strconv"
	"time"

	"storya/internal/domain"
	"storya/internal/middleware"
	"storya/internal/service"

	"github.com/gin-gonic/gin"
)

type ExecutionHandler struct {
	execSvc *service.ExecutionService
}

func NewExecutionHandler(execSvc *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{execSvc: execSvc}
}

// Claim reserves one story placement on an order for the executor.
func (h *ExecutionHandler) Claim(c *gin.Context) {
	var req struct {
		OrderID uint `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	exec, err := h.execSvc.Claim(req.OrderID, middleware.GetUserID(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exec)
}

// Submit attaches the proof screenshot and moves the execution to review.
func (h *ExecutionHandler) Submit(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid execution id"})
		return
	}
	var req struct {
		ScreenshotURL string `json:"screenshot_url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	exec, err := h.execSvc.Submit(uint(id), middleware.GetUserID(c), req.ScreenshotURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exec)
}

// ListMine returns the executor's executions, newest first.
func (h *ExecutionHandler) ListMine(c *gin.Context) {
	execs, err := h.execSvc.ListByExecutor(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": execs})
}

func (h *ExecutionHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid execution id"})
		return
	}
	exec, err := h.execSvc.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	if exec.ExecutorID != middleware.GetUserID(c) && middleware.GetRole(c) != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, exec)
}
