package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parkjm/restock/internal/domain/models"
	"github.com/parkjm/restock/internal/repository/inventory"
	"github.com/parkjm/restock/internal/service/forecast"
	"github.com/parkjm/restock/internal/service/narration"
)

const defaultHistoryDays = 30

// InventoryHandler adapts the forecast and narration services to HTTP.
type InventoryHandler struct {
	forecastSvc  *forecast.Service
	narrationSvc *narration.Service
	repo         inventory.Repository
	logger       *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(forecastSvc *forecast.Service, narrationSvc *narration.Service, repo inventory.Repository, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{
		forecastSvc:  forecastSvc,
		narrationSvc: narrationSvc,
		repo:         repo,
		logger:       logger,
	}
}

// CurrentInventory returns every item with its stock status and tier counts.
func (h *InventoryHandler) CurrentInventory(c *gin.Context) {
	items, counts, err := h.forecastSvc.CurrentInventory(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_products": len(items),
		"critical_count": counts.Critical,
		"warning_count":  counts.Warning,
		"safe_count":     counts.Safe,
		"products":       items,
	})
}

// History returns an item's observations within the requested day span.
func (h *InventoryHandler) History(c *gin.Context) {
	days, ok := h.queryDays(c, defaultHistoryDays)
	if !ok {
		return
	}

	item, observations, err := h.forecastSvc.History(c.Request.Context(), c.Param("qcode"), days)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qcode":         item.Qcode,
		"product_name":  item.Name,
		"current_stock": item.CurrentStock,
		"history_count": len(observations),
		"history":       observations,
	})
}

// Predictions returns a forecast for every tracked item.
func (h *InventoryHandler) Predictions(c *gin.Context) {
	predictions, err := h.forecastSvc.PredictAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	var critical, warning int
	for _, p := range predictions {
		switch p.StockStatus {
		case models.StatusCritical:
			critical++
		case models.StatusWarning:
			warning++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_products": len(predictions),
		"critical_count": critical,
		"warning_count":  warning,
		"predictions":    predictions,
	})
}

// PredictionByQcode returns the forecast for one item. The optional days
// query overrides the estimator's lookback window.
func (h *InventoryHandler) PredictionByQcode(c *gin.Context) {
	days, ok := h.queryDays(c, 0)
	if !ok {
		return
	}

	prediction, err := h.forecastSvc.PredictItem(c.Request.Context(), c.Param("qcode"), days)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// Alerts returns the prioritized low-stock alert list. selected_qcodes
// narrows the pass to a comma-separated item subset.
func (h *InventoryHandler) Alerts(c *gin.Context) {
	var qcodes []string
	if raw := c.Query("selected_qcodes"); strings.TrimSpace(raw) != "" {
		for _, qcode := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(qcode); trimmed != "" {
				qcodes = append(qcodes, trimmed)
			}
		}
	}

	alerts, err := h.forecastSvc.Alerts(c.Request.Context(), qcodes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alert_count": len(alerts),
		"alerts":      alerts,
	})
}

type recordRequest struct {
	Qcode    string   `json:"qcode" binding:"required"`
	Quantity *float64 `json:"quantity" binding:"required"`
	Notes    string   `json:"notes"`
}

// Record applies a manual stock adjustment and appends one observation.
func (h *InventoryHandler) Record(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid record payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.forecastSvc.Record(c.Request.Context(), req.Qcode, *req.Quantity, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "stock recorded",
		"qcode":           result.Qcode,
		"previous_stock":  result.PreviousStock,
		"current_stock":   result.CurrentStock,
		"quantity_change": result.QuantityChange,
	})
}

type notifyRequest struct {
	Qcode string `json:"qcode" binding:"required"`
}

// AgentNotify hands a low-stock item to the narration agent and returns the
// concatenated narration. The inventory data is read fresh so the prompt
// always reflects current stock.
func (h *InventoryHandler) AgentNotify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid notify payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "qcode is required"})
		return
	}

	item, err := h.repo.GetItem(c.Request.Context(), req.Qcode)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.narrationSvc.Narrate(c.Request.Context(), *item)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"qcode":      item.Qcode,
		"session_id": result.SessionID,
		"prompt":     result.Prompt,
		"response":   result.Narration,
	})
}

func (h *InventoryHandler) queryDays(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return fallback, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return 0, false
	}
	return days, true
}

func (h *InventoryHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUpstreamUnavailable):
		h.logger.Error("upstream unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream unavailable"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
