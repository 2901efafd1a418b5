package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fabric-inspection-backend/internal/workflow"
)

func defectIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("defect_id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid defect ID"})
		return 0, false
	}
	return id, true
}

// ListDefects handles GET /api/rolls/:roll_id/defects, always fresh from the
// store in storage order.
func (h *Handler) ListDefects(c *gin.Context) {
	id, ok := rollIDParam(c)
	if !ok {
		return
	}

	defects, err := h.store.ListDefects(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, defects)
}

// AddDefect handles POST /api/rolls/:roll_id/defects from the defect entry
// dialog.
func (h *Handler) AddDefect(c *gin.Context) {
	id, ok := rollIDParam(c)
	if !ok {
		return
	}

	var in workflow.DefectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defects, err := h.session.AddDefect(c.Request.Context(), id, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"defects": defects})
}

// AddDefectAtPosition handles POST /api/rolls/:roll_id/defects/at-position:
// the defect range is seeded from the live length reading.
func (h *Handler) AddDefectAtPosition(c *gin.Context) {
	id, ok := rollIDParam(c)
	if !ok {
		return
	}

	var in workflow.DefectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	defects, err := h.session.AddDefectAtCurrentPosition(c.Request.Context(), id, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"defects": defects})
}

// RequestDefectDelete handles POST /api/defects/:defect_id/delete-intent,
// opening the delete confirmation dialog.
func (h *Handler) RequestDefectDelete(c *gin.Context) {
	id, ok := defectIDParam(c)
	if !ok {
		return
	}

	state, err := h.session.RequestDefectDelete(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// RemoveDefect handles DELETE /api/defects/:defect_id after confirmation.
func (h *Handler) RemoveDefect(c *gin.Context) {
	id, ok := defectIDParam(c)
	if !ok {
		return
	}

	defects, err := h.session.RemoveDefect(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"defects": defects})
}

// GetDefectCodes handles GET /api/defect-codes (read-only catalog).
func (h *Handler) GetDefectCodes(c *gin.Context) {
	codes, err := h.store.ListDefectCodes(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, codes)
}
