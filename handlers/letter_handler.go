package handlers

import (
	"errors"
	"net/http"

	"visaletter-backend/assets"
	"visaletter-backend/logger"
	"visaletter-backend/middleware"
	"visaletter-backend/service"

	"github.com/gin-gonic/gin"
)

// LetterHandler handles HTTP requests for cover letters
type LetterHandler struct {
	letterService *service.LetterService
	logger        *logger.Logger
}

// NewLetterHandler creates a new letter handler
func NewLetterHandler(letterService *service.LetterService, log *logger.Logger) *LetterHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LetterHandler{
		letterService: letterService,
		logger:        log,
	}
}

// GenerateLetter handles POST /api/letters
func (h *LetterHandler) GenerateLetter(c *gin.Context) {
	fields, ok := bindIntake(c)
	if !ok {
		return
	}

	result, err := h.letterService.GenerateLetter(c.Request.Context(), service.GenerateLetterRequest{
		RequestID: c.GetString(middleware.RequestIDKey),
		Fields:    fields,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"letter":        result.Letter,
			"model":         result.Model,
			"fallback_used": result.FallbackUsed,
			"scenarios":     result.Flags.Active(),
		},
	})
}

// PreviewPrompt handles POST /api/letters/preview
func (h *LetterHandler) PreviewPrompt(c *gin.Context) {
	fields, ok := bindIntake(c)
	if !ok {
		return
	}

	result, err := h.letterService.PreviewPrompt(c.Request.Context(), service.GenerateLetterRequest{
		RequestID: c.GetString(middleware.RequestIDKey),
		Fields:    fields,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"prompt":    result.Prompt,
			"facts":     result.Facts,
			"flags":     result.Flags,
			"rationale": result.Rationale,
		},
	})
}

func bindIntake(c *gin.Context) (map[string]any, bool) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    service.CodeInvalidRequest,
				"message": "Request body must be a JSON object of intake fields",
			},
		})
		return nil, false
	}
	return fields, true
}

// writeError maps service errors onto the response envelope
func (h *LetterHandler) writeError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var configErr *assets.ConfigurationError
	var upstreamErr *service.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":           service.CodeValidationFailed,
				"message":        "Missing required fields",
				"missing_fields": validationErr.Missing,
			},
		})

	case errors.As(err, &configErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":           service.CodeAssetsMissing,
				"message":        "Policy assets are missing; letter generation is unavailable",
				"missing_assets": configErr.Missing,
			},
		})

	case errors.Is(err, service.ErrAssetsUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":           service.CodeAssetsMissing,
				"message":        err.Error(),
				"missing_assets": []string{},
			},
		})

	case errors.Is(err, service.ErrEmptyResult):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    service.CodeEmptyGeneration,
				"message": "The generation service returned an empty letter",
			},
		})

	case errors.As(err, &upstreamErr):
		status := http.StatusInternalServerError
		if upstreamErr.Status >= 400 && upstreamErr.Status < 600 {
			status = upstreamErr.Status
		}
		h.logger.Error("letter generation failed",
			"request_id", c.GetString(middleware.RequestIDKey),
			"model", upstreamErr.Model,
			"status", upstreamErr.Status,
			"error", upstreamErr.Err,
		)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    service.CodeGenerationFailed,
				"message": "Letter generation failed",
				"detail":  upstreamErr.Err.Error(),
			},
		})

	default:
		h.logger.Error("letter request failed", "request_id", c.GetString(middleware.RequestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    service.CodeInternal,
				"message": "Internal server error",
			},
		})
	}
}

// AssetHandler reports the state of the policy assets
type AssetHandler struct {
	state *assets.State
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(state *assets.State) *AssetHandler {
	return &AssetHandler{state: state}
}

// Status handles GET /api/assets/status
func (h *AssetHandler) Status(c *gin.Context) {
	bundle, err := h.state.Bundle()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":           service.CodeAssetsMissing,
				"message":        err.Error(),
				"missing_assets": h.state.Missing(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ready":           true,
			"location":        bundle.Location,
			"strict":          bundle.Strict,
			"fingerprint":     bundle.Fingerprint,
			"master_template": bundle.MasterTemplatePath,
			"mini_templates":  documentNames(bundle.MiniTemplates),
			"samples":         documentNames(bundle.Samples),
		},
	})
}

func documentNames(docs []assets.Document) []string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	return names
}
