package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric-inspection-backend/internal/telemetry"
)

// GetTelemetry handles GET /api/telemetry for the device-status panel: last
// known connectivity and value per channel.
func (h *Handler) GetTelemetry(c *gin.Context) {
	c.JSON(http.StatusOK, h.poller.Snapshot())
}

type applyMeasurementRequest struct {
	Channel telemetry.Channel `json:"channel" binding:"required"`
	Value   float64           `json:"value"`
}

// ApplyManualMeasurement handles POST /api/telemetry/apply: the operator
// typed a value for a disconnected channel and applied it to the roll.
func (h *Handler) ApplyManualMeasurement(c *gin.Context) {
	var req applyMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roll, err := h.session.ApplyManual(c.Request.Context(), req.Channel, req.Value)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roll)
}
