package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"fabric-inspection-backend/internal/qcerr"
	"fabric-inspection-backend/internal/store"
	"fabric-inspection-backend/internal/telemetry"
	"fabric-inspection-backend/internal/workflow"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	session *workflow.Session
	store   store.Store
	poller  *telemetry.Poller
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(session *workflow.Session, s store.Store, poller *telemetry.Poller, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		session: session,
		store:   s,
		poller:  poller,
		webpush: webpushOptions,
	}
}

// operatorID extracts the acting operator from the request. Authentication is
// handled upstream; the header is trusted as-is.
func operatorID(c *gin.Context) string {
	return c.GetHeader("X-Operator-Id")
}

// abortWithError maps the error taxonomy onto HTTP status codes.
func abortWithError(c *gin.Context, err error) {
	var ve *qcerr.ValidationError
	var nf *qcerr.NotFoundError
	var cf *qcerr.ConflictError
	var ie *qcerr.IntegrationError

	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Reason, "field": ve.Field})
	case errors.As(err, &nf):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &cf):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": cf.Reason})
	case errors.As(err, &ie):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": ie.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
