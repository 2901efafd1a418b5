package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric-inspection-backend/internal/workflow"
)

// GetState handles GET /api/state: the serializable workflow state driving
// view, tab and dialog rendering.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

type selectTabRequest struct {
	Tab workflow.Tab `json:"tab" binding:"required"`
}

// SelectTab handles PUT /api/state/tab. Selecting the defects tab while it is
// disabled leaves the state unchanged.
func (h *Handler) SelectTab(c *gin.Context) {
	var req selectTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.session.SelectTab(req.Tab))
}
