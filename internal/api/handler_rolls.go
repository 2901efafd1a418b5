package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fabric-inspection-backend/internal/workflow"
)

// rollFieldColumns maps the JSON field names accepted on PATCH to their
// database columns. Everything else (barCode, operatorId, status) is
// immutable through this surface.
var rollFieldColumns = map[string]string{
	"batchNo":      "batch_no",
	"fabricTypeId": "fabric_type_id",
	"color":        "color",
	"machineId":    "machine_id",
	"notes":        "notes",
	"width":        "width",
	"length":       "length",
	"weight":       "weight",
}

func rollIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("roll_id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid roll ID"})
		return 0, false
	}
	return id, true
}

// CreateRoll handles POST /api/rolls: the draft roll form is submitted and
// the roll becomes persisted with status active.
func (h *Handler) CreateRoll(c *gin.Context) {
	var in workflow.CreateRollInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roll, err := h.session.CreateRoll(c.Request.Context(), in, operatorID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"roll": roll, "state": h.session.State()})
}

// GetRoll handles GET /api/rolls/:roll_id.
func (h *Handler) GetRoll(c *gin.Context) {
	id, ok := rollIDParam(c)
	if !ok {
		return
	}

	roll, err := h.store.GetRoll(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roll)
}

// UpdateRoll handles PATCH /api/rolls/:roll_id with a partial field update.
func (h *Handler) UpdateRoll(c *gin.Context) {
	id, ok := rollIDParam(c)
	if !ok {
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := make(map[string]any, len(body))
	for name, v := range body {
		column, known := rollFieldColumns[name]
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "field is not editable", "field": name})
			return
		}
		fields[column] = v
	}

	roll, err := h.session.UpdateRoll(c.Request.Context(), id, fields)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roll)
}

type finalizeRequest struct {
	Outcome workflow.FinalizeIntent `json:"outcome"`
}

// RequestFinalize handles POST /api/rolls/:roll_id/finalize: it registers the
// operator's intent and opens the confirmation step. Nothing is committed yet.
func (h *Handler) RequestFinalize(c *gin.Context) {
	id, ok := rollIDParam(c)
	if !ok {
		return
	}

	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.session.RequestFinalize(id, req.Outcome)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// ConfirmFinalize handles POST /api/rolls/:roll_id/finalize/confirm: the
// irreversible transition. After the store acknowledges it there is no undo.
func (h *Handler) ConfirmFinalize(c *gin.Context) {
	if _, ok := rollIDParam(c); !ok {
		return
	}

	roll, err := h.session.ConfirmFinalize(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roll": roll, "state": h.session.State()})
}

// CancelFinalize handles DELETE /api/rolls/:roll_id/finalize, dismissing the
// confirmation step.
func (h *Handler) CancelFinalize(c *gin.Context) {
	if _, ok := rollIDParam(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.session.CancelFinalize()})
}
