package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type scanRequest struct {
	Barcode string `json:"barcode"`
}

// Scan handles POST /api/scan: it resolves a scanned or typed barcode to an
// existing roll, or signals that a new roll should be drafted. A miss is a
// normal outcome here, not an error response.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session.Resolve(c.Request.Context(), req.Barcode)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found":          result.Found,
		"roll":           result.Roll,
		"defects":        result.Defects,
		"prefillBarcode": result.PrefillBarcode,
		"state":          h.session.State(),
	})
}
