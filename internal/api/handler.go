package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"reservas-backend/internal/model"
	"reservas-backend/internal/notification"
	"reservas-backend/internal/parse"
	"reservas-backend/internal/reconcile"
	"reservas-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	ctrl       *reconcile.Controller
	subs       store.SubscriptionStore
	webpush    *webpush.Options
	restaurant string
	log        zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(ctrl *reconcile.Controller, subs store.SubscriptionStore, webpushOptions *webpush.Options, restaurant string, logger zerolog.Logger) *Handler {
	return &Handler{
		ctrl:       ctrl,
		subs:       subs,
		webpush:    webpushOptions,
		restaurant: restaurant,
		log:        logger.With().Str("component", "api").Logger(),
	}
}

// writeError maps domain errors to status codes. Anything unrecognised came
// from the remote store and is passed through verbatim.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, model.ErrInvalidReservation), errors.Is(err, reconcile.ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, notification.ErrNoPhone):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("remote operation failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// slot parses the :shift and :table path parameters.
func slot(c *gin.Context) (model.Shift, int, bool) {
	shift, ok := parse.LookupShift(c.Param("shift"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid shift"})
		return "", 0, false
	}
	table, err := strconv.Atoi(c.Param("table"))
	if err != nil || table < model.MinTable || table > model.MaxTable {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid table number"})
		return "", 0, false
	}
	return shift, table, true
}
