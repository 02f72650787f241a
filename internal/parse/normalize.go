package parse

import (
	"strings"

	"reservas-backend/internal/model"
)

// Normalize maps a raw remote row to the canonical model. It never fails:
// unknown shift encodings degrade to lunch. Only shift, phone and arrived
// are derived; every other field passes through unchanged.
func Normalize(row model.Row) model.Reservation {
	notes := deref(row.Notes)
	decoded := DecodeNotes(notes)

	phone := strings.TrimSpace(deref(row.Phone))
	if phone == "" {
		phone = decoded.Phone
	}

	return model.Reservation{
		ID:              row.ID,
		Date:            row.Date,
		Shift:           Shift(row.Shift),
		TableNumber:     row.TableNumber,
		ClientName:      row.ClientName,
		GuestCount:      row.GuestCount,
		ReservationTime: row.ReservationTime,
		Phone:           phone,
		Notes:           notes,
		Arrived:         decoded.Arrived,
	}
}

// NormalizeAll normalizes every row, preserving order.
func NormalizeAll(rows []model.Row) []model.Reservation {
	out := make([]model.Reservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, Normalize(r))
	}
	return out
}

// ToRow renders a canonical reservation with shiftValue as the stored shift
// encoding. Empty phone and notes become NULL.
func ToRow(r model.Reservation, shiftValue string) model.Row {
	return model.Row{
		ID:              r.ID,
		Date:            r.Date,
		Shift:           shiftValue,
		TableNumber:     r.TableNumber,
		ClientName:      r.ClientName,
		GuestCount:      r.GuestCount,
		ReservationTime: r.ReservationTime,
		Phone:           nullable(r.Phone),
		Notes:           nullable(r.Notes),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
