package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"visaletter-backend/models"
	"visaletter-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GenerationLogReader reads generation metadata
type GenerationLogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationLog, error)
	CountByStatus(ctx context.Context, sinceHours int) ([]repository.StatusCount, error)
}

// GenerationLogHandler exposes generation metadata for operators
type GenerationLogHandler struct {
	logs GenerationLogReader
}

// NewGenerationLogHandler creates a new generation log handler
func NewGenerationLogHandler(logs GenerationLogReader) *GenerationLogHandler {
	return &GenerationLogHandler{logs: logs}
}

// GetLog handles GET /api/generation-logs/:id
func (h *GenerationLogHandler) GetLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid generation log ID format",
			},
		})
		return
	}

	entry, err := h.logs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Generation log not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entry,
	})
}

// Stats handles GET /api/generation-logs/stats?hours=24
func (h *GenerationLogHandler) Stats(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "hours must be a positive integer",
			},
		})
		return
	}

	counts, err := h.logs.CountByStatus(c.Request.Context(), hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if counts == nil {
		counts = []repository.StatusCount{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"hours":  hours,
			"counts": counts,
		},
	})
}
