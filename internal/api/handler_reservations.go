package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reservas-backend/internal/model"
	"reservas-backend/internal/notification"
	"reservas-backend/internal/parse"
	"reservas-backend/internal/reconcile"
)

// reservationResponse adds the notes as shown to staff, markers removed.
type reservationResponse struct {
	model.Reservation
	DisplayNotes string `json:"display_notes"`
}

type viewResponse struct {
	Date         string                `json:"date"`
	Version      uint64                `json:"version"`
	Reservations []reservationResponse `json:"reservations"`
}

func toResponse(r model.Reservation) reservationResponse {
	return reservationResponse{Reservation: r, DisplayNotes: parse.DisplayNotes(r.Notes)}
}

func toViewResponse(v reconcile.View, shift model.Shift) viewResponse {
	out := viewResponse{Date: v.Date, Version: v.Version, Reservations: make([]reservationResponse, 0, len(v.Reservations))}
	for _, r := range v.Reservations {
		if shift != "" && r.Shift != shift {
			continue
		}
		out.Reservations = append(out.Reservations, toResponse(r))
	}
	return out
}

type putDateRequest struct {
	Date string `json:"date" binding:"required"`
}

// GetDate returns the active date.
func (h *Handler) GetDate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"date": h.ctrl.ActiveDate()})
}

// PutDate switches the active date and returns its reservations.
func (h *Handler) PutDate(c *gin.Context) {
	var req putDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ctrl.SetActiveDate(c.Request.Context(), req.Date); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toViewResponse(h.ctrl.Cache().View(), ""))
}

// ListReservations returns the committed view of the active date,
// optionally restricted to one shift.
func (h *Handler) ListReservations(c *gin.Context) {
	var shift model.Shift
	if raw := c.Query("shift"); raw != "" {
		s, ok := parse.LookupShift(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shift"})
			return
		}
		shift = s
	}
	c.JSON(http.StatusOK, toViewResponse(h.ctrl.Cache().View(), shift))
}

// GetReservation returns the reservation at one table.
func (h *Handler) GetReservation(c *gin.Context) {
	shift, table, ok := slot(c)
	if !ok {
		return
	}
	r, found := h.ctrl.Cache().Lookup(shift, table)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(r))
}

type putReservationRequest struct {
	ClientName      string `json:"client_name"`
	GuestCount      int    `json:"guest_count"`
	ReservationTime string `json:"reservation_time"`
	Phone           string `json:"phone"`
	Notes           string `json:"notes"`
}

// PutReservation creates or overwrites the reservation at one table.
func (h *Handler) PutReservation(c *gin.Context) {
	shift, table, ok := slot(c)
	if !ok {
		return
	}
	var req putReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.ctrl.Save(c.Request.Context(), reconcile.SaveRequest{
		Shift:           shift,
		TableNumber:     table,
		ClientName:      req.ClientName,
		GuestCount:      req.GuestCount,
		ReservationTime: req.ReservationTime,
		Phone:           req.Phone,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondWithSlot(c, shift, table)
}

// DeleteReservation removes the reservation at one table.
func (h *Handler) DeleteReservation(c *gin.Context) {
	shift, table, ok := slot(c)
	if !ok {
		return
	}
	if err := h.ctrl.Delete(c.Request.Context(), shift, table); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkArrived records the arrival of the guests at one table.
func (h *Handler) MarkArrived(c *gin.Context) {
	shift, table, ok := slot(c)
	if !ok {
		return
	}
	if err := h.ctrl.MarkArrived(c.Request.Context(), shift, table); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondWithSlot(c, shift, table)
}

// GetWhatsAppLink returns the confirmation deep link for one table.
func (h *Handler) GetWhatsAppLink(c *gin.Context) {
	shift, table, ok := slot(c)
	if !ok {
		return
	}
	r, found := h.ctrl.Cache().Lookup(shift, table)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	link, err := notification.WhatsAppLink(h.restaurant, r)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

// Refetch reloads the active date from the remote store.
func (h *Handler) Refetch(c *gin.Context) {
	if err := h.ctrl.Refetch(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toViewResponse(h.ctrl.Cache().View(), ""))
}

func (h *Handler) respondWithSlot(c *gin.Context, shift model.Shift, table int) {
	r, found := h.ctrl.Cache().Lookup(shift, table)
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toResponse(r))
}
