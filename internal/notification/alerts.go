package notification

import (
	"fmt"

	"reservas-backend/internal/model"
)

var shiftLabelsPT = map[model.Shift]string{
	model.ShiftLunch:  "almoço",
	model.ShiftDinner: "jantar",
}

func tag(date string, shift model.Shift, table int) string {
	return fmt.Sprintf("%s/%s", date, model.Key{Shift: shift, TableNumber: table})
}

// BookingAlert announces a saved reservation.
func BookingAlert(r model.Reservation) Alert {
	return Alert{
		Title: fmt.Sprintf("Reserva mesa %d (%s)", r.TableNumber, shiftLabelsPT[r.Shift]),
		Body:  fmt.Sprintf("%s, %d pessoas às %s", r.ClientName, r.GuestCount, r.ReservationTime),
		Tag:   tag(r.Date, r.Shift, r.TableNumber),
	}
}

// ArrivalAlert announces that the guests of a reservation have arrived.
func ArrivalAlert(r model.Reservation) Alert {
	return Alert{
		Title: fmt.Sprintf("Mesa %d chegou (%s)", r.TableNumber, shiftLabelsPT[r.Shift]),
		Body:  fmt.Sprintf("%s, %d pessoas", r.ClientName, r.GuestCount),
		Tag:   tag(r.Date, r.Shift, r.TableNumber),
	}
}

// CancellationAlert announces a removed reservation.
func CancellationAlert(date string, shift model.Shift, table int) Alert {
	return Alert{
		Title: fmt.Sprintf("Reserva removida: mesa %d (%s)", table, shiftLabelsPT[shift]),
		Body:  date,
		Tag:   tag(date, shift, table),
	}
}
